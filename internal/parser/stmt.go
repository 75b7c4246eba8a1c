package parser

import (
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/token"
)

func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	start := p.tok.Span
	p.expect(token.LBrace)
	b := &ast.BlockStmt{}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		s := p.parseStmt()
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	p.expect(token.RBrace)
	b.Sp = p.span(start)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.LBrace:
		return p.parseBlockStmt()
	case token.KwIf:
		return p.parseIfStmt()
	case token.KwWhile:
		return p.parseWhileStmt()
	case token.KwDo:
		return p.parseDoWhileStmt()
	case token.KwFor:
		return p.parseForStmt()
	case token.KwReturn:
		return p.parseReturnStmt()
	case token.KwBreak:
		sp := p.tok.Span
		p.advance()
		p.accept(token.Semicolon)
		return &ast.BreakStmt{Sp: p.span(sp)}
	case token.KwContinue:
		sp := p.tok.Span
		p.advance()
		p.accept(token.Semicolon)
		return &ast.ContinueStmt{Sp: p.span(sp)}
	case token.KwEmit:
		return p.parseEmitStmt()
	case token.KwRevert:
		return p.parseRevertStmt()
	case token.KwRequire:
		return p.parseRequireStmt()
	case token.KwAssert:
		return p.parseAssertStmt()
	case token.KwLet:
		return p.parseVarDeclStmt()
	case token.Semicolon:
		p.advance()
		return nil
	default:
		if p.looksLikeVarDecl() {
			return p.parseVarDeclStmt()
		}
		return p.parseExprStmt()
	}
}

// looksLikeVarDecl reports whether the current position starts a
// type-led local declaration such as "uint256 x = 1;" (no leading `let`),
// which this grammar also accepts the way Solidity does.
func (p *Parser) looksLikeVarDecl() bool {
	switch p.tok.Kind {
	case token.KwBool, token.KwAddress, token.KwString, token.KwBytes, token.KwInt,
		token.KwUint, token.KwMapping:
		return true
	case token.Ident:
		return p.next.Kind == token.Ident || p.next.Kind == token.LBracket
	}
	return false
}

func (p *Parser) parseVarDeclStmt() *ast.VarDeclStmt {
	start := p.tok.Span
	v := &ast.VarDeclStmt{}
	if p.accept(token.KwLet) {
		v.Names = append(v.Names, p.expect(token.Ident).Literal)
		v.Types = append(v.Types, nil)
		if p.accept(token.Colon) {
			v.Types[0] = p.parseTypeExpr()
		}
	} else if p.accept(token.LParen) {
		for !p.at(token.RParen) && !p.at(token.EOF) {
			var t ast.TypeExpr
			if !p.at(token.Comma) {
				t = p.parseTypeExpr()
			}
			name := ""
			if p.at(token.Ident) {
				name = p.tok.Literal
				p.advance()
			}
			v.Types = append(v.Types, t)
			v.Names = append(v.Names, name)
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
	} else {
		t := p.parseTypeExpr()
		for p.at(token.LBracket) {
			// memory/storage/calldata already consumed as part of type in params;
			// for locals we allow an optional location keyword here too.
			break
		}
		switch p.tok.Kind {
		case token.KwStorage, token.KwMemory, token.KwCalldata:
			p.advance()
		}
		v.Names = append(v.Names, p.expect(token.Ident).Literal)
		v.Types = append(v.Types, t)
	}
	if p.accept(token.Assign) {
		v.Init = p.parseExpr()
	}
	p.expect(token.Semicolon)
	v.Sp = p.span(start)
	return v
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	start := p.tok.Span
	x := p.parseExpr()
	p.accept(token.Semicolon)
	return &ast.ExprStmt{X: x, Sp: p.span(start)}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.tok.Span
	p.expect(token.KwIf)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseStmt()
	s := &ast.IfStmt{Cond: cond, Then: then}
	if p.accept(token.KwElse) {
		s.Else = p.parseStmt()
	}
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.tok.Span
	p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStmt()
	return &ast.WhileStmt{Cond: cond, Body: body, Sp: p.span(start)}
}

func (p *Parser) parseDoWhileStmt() *ast.DoWhileStmt {
	start := p.tok.Span
	p.expect(token.KwDo)
	body := p.parseStmt()
	p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	p.accept(token.Semicolon)
	return &ast.DoWhileStmt{Body: body, Cond: cond, Sp: p.span(start)}
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.tok.Span
	p.expect(token.KwFor)
	p.expect(token.LParen)
	s := &ast.ForStmt{}
	if !p.at(token.Semicolon) {
		s.Init = p.parseStmt()
	} else {
		p.advance()
	}
	if !p.at(token.Semicolon) {
		s.Cond = p.parseExpr()
	}
	p.expect(token.Semicolon)
	if !p.at(token.RParen) {
		x := p.parseExpr()
		s.Post = &ast.ExprStmt{X: x, Sp: x.Span()}
	}
	p.expect(token.RParen)
	s.Body = p.parseStmt()
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.tok.Span
	p.expect(token.KwReturn)
	s := &ast.ReturnStmt{}
	if !p.at(token.Semicolon) {
		s.Values = append(s.Values, p.parseExpr())
		for p.accept(token.Comma) {
			s.Values = append(s.Values, p.parseExpr())
		}
	}
	p.accept(token.Semicolon)
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseEmitStmt() *ast.EmitStmt {
	start := p.tok.Span
	p.expect(token.KwEmit)
	event := p.parsePrimary()
	s := &ast.EmitStmt{Event: event}
	p.expect(token.LParen)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		s.Args = append(s.Args, p.parseExpr())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	p.accept(token.Semicolon)
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseRevertStmt() *ast.RevertStmt {
	start := p.tok.Span
	p.expect(token.KwRevert)
	s := &ast.RevertStmt{}
	if p.at(token.StringLit) {
		s.Args = append(s.Args, &ast.StringLiteral{Value: p.tok.Literal, Sp: p.tok.Span})
		p.advance()
	} else if p.at(token.Ident) {
		s.Error = p.parsePrimary()
		if p.accept(token.LParen) {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				s.Args = append(s.Args, p.parseExpr())
				if !p.accept(token.Comma) {
					break
				}
			}
			p.expect(token.RParen)
		}
	}
	p.accept(token.Semicolon)
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseRequireStmt() *ast.RequireStmt {
	start := p.tok.Span
	p.expect(token.KwRequire)
	p.expect(token.LParen)
	cond := p.parseExpr()
	s := &ast.RequireStmt{Cond: cond}
	if p.accept(token.Comma) {
		s.Message = p.parseExpr()
	}
	p.expect(token.RParen)
	p.accept(token.Semicolon)
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseAssertStmt() *ast.AssertStmt {
	start := p.tok.Span
	p.expect(token.KwAssert)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	p.accept(token.Semicolon)
	return &ast.AssertStmt{Cond: cond, Sp: p.span(start)}
}
