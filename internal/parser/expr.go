package parser

import (
	"strings"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/token"
)

// parseExpr parses a full expression, including assignment and the
// ternary conditional, which bind looser than everything below them.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

var assignOps = map[token.Kind]string{
	token.Assign: "=", token.PlusAssign: "+=", token.MinusAssign: "-=",
	token.StarAssign: "*=", token.SlashAssign: "/=", token.PercentAssign: "%=",
	token.AndAssign: "&=", token.OrAssign: "|=", token.XorAssign: "^=",
	token.ShlAssign: "<<=", token.ShrAssign: ">>=",
}

func (p *Parser) parseAssign() ast.Expr {
	x := p.parseConditional()
	if op, ok := assignOps[p.tok.Kind]; ok {
		p.advance()
		value := p.parseAssign()
		return &ast.AssignExpr{Op: op, Target: x, Value: value, Sp: p.span(x.Span())}
	}
	return x
}

func (p *Parser) parseConditional() ast.Expr {
	cond := p.parseBinary(0)
	if p.accept(token.Question) {
		then := p.parseAssign()
		p.expect(token.Colon)
		els := p.parseAssign()
		return &ast.ConditionalExpr{Cond: cond, Then: then, Else: els, Sp: p.span(cond.Span())}
	}
	return cond
}

// binaryPrec maps an operator token to its precedence level; higher binds
// tighter. Levels follow Solidity's documented operator precedence table.
var binaryPrec = map[token.Kind]int{
	token.OrOr:   1,
	token.AndAnd: 2,
	token.Eq:     3, token.Ne: 3,
	token.LT: 4, token.LE: 4, token.GT: 4, token.GE: 4,
	token.BitOr:  5,
	token.BitXor: 6,
	token.BitAnd: 7,
	token.Shl:    8, token.Shr: 8,
	token.Plus: 9, token.Minus: 9,
	token.Star: 10, token.Slash: 10, token.Percent: 10,
	token.StarStar: 11,
}

var binaryOpText = map[token.Kind]string{
	token.OrOr: "||", token.AndAnd: "&&", token.Eq: "==", token.Ne: "!=",
	token.LT: "<", token.LE: "<=", token.GT: ">", token.GE: ">=",
	token.BitOr: "|", token.BitXor: "^", token.BitAnd: "&",
	token.Shl: "<<", token.Shr: ">>", token.Plus: "+", token.Minus: "-",
	token.Star: "*", token.Slash: "/", token.Percent: "%", token.StarStar: "**",
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	x := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.tok.Kind]
		if !ok || prec < minPrec {
			return x
		}
		op := binaryOpText[p.tok.Kind]
		p.advance()
		// ** is right-associative; every other level is left-associative.
		nextMin := prec + 1
		if op == "**" {
			nextMin = prec
		}
		y := p.parseBinary(nextMin)
		x = &ast.BinaryExpr{Op: op, X: x, Y: y, Sp: p.span(x.Span())}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.tok.Span
	switch p.tok.Kind {
	case token.Bang:
		p.advance()
		return &ast.UnaryExpr{Op: "!", X: p.parseUnary(), Sp: p.span(start)}
	case token.Minus:
		p.advance()
		return &ast.UnaryExpr{Op: "-", X: p.parseUnary(), Sp: p.span(start)}
	case token.BitNot:
		p.advance()
		return &ast.UnaryExpr{Op: "~", X: p.parseUnary(), Sp: p.span(start)}
	case token.PlusPlus:
		p.advance()
		return &ast.UnaryExpr{Op: "++", X: p.parseUnary(), Sp: p.span(start)}
	case token.MinusMinus:
		p.advance()
		return &ast.UnaryExpr{Op: "--", X: p.parseUnary(), Sp: p.span(start)}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.Dot:
			p.advance()
			name := p.expect(token.Ident).Literal
			x = &ast.MemberExpr{X: x, Name: name, Sp: p.span(x.Span())}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			x = &ast.IndexExpr{X: x, Index: idx, Sp: p.span(x.Span())}
		case token.LParen:
			p.advance()
			call := &ast.CallExpr{Callee: x}
			for !p.at(token.RParen) && !p.at(token.EOF) {
				name := ""
				if p.at(token.Ident) && p.next.Kind == token.Colon {
					name = p.tok.Literal
					p.advance()
					p.advance()
				}
				call.Args = append(call.Args, p.parseExpr())
				call.Names = append(call.Names, name)
				if !p.accept(token.Comma) {
					break
				}
			}
			p.expect(token.RParen)
			call.Sp = p.span(x.Span())
			x = call
		case token.PlusPlus:
			p.advance()
			x = &ast.UnaryExpr{Op: "++", X: x, Postfix: true, Sp: p.span(x.Span())}
		case token.MinusMinus:
			p.advance()
			x = &ast.UnaryExpr{Op: "--", X: x, Postfix: true, Sp: p.span(x.Span())}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.tok.Span
	switch p.tok.Kind {
	case token.LParen:
		p.advance()
		first := p.parseExpr()
		if p.at(token.Comma) {
			tup := &ast.TupleExpr{Elems: []ast.Expr{first}}
			for p.accept(token.Comma) {
				tup.Elems = append(tup.Elems, p.parseExpr())
			}
			p.expect(token.RParen)
			tup.Sp = p.span(start)
			return tup
		}
		p.expect(token.RParen)
		return first
	case token.Ident:
		lit := p.tok.Literal
		p.advance()
		return &ast.Ident{Name: lit, Sp: p.span(start)}
	case token.KwThis, token.KwSuper, token.KwMsg, token.KwTx, token.KwBlock:
		lit := p.tok.Literal
		p.advance()
		return &ast.Ident{Name: lit, Sp: p.span(start)}
	case token.KwTrue:
		p.advance()
		return &ast.BoolLiteral{Value: true, Sp: p.span(start)}
	case token.KwFalse:
		p.advance()
		return &ast.BoolLiteral{Value: false, Sp: p.span(start)}
	case token.Number, token.HexNumber:
		lit := p.tok.Literal
		p.advance()
		return &ast.IntLiteral{Text: lit, Sp: p.span(start)}
	case token.RationalLit:
		lit := p.tok.Literal
		p.advance()
		return &ast.RationalLiteral{Text: lit, Sp: p.span(start)}
	case token.AddressLit:
		lit := p.tok.Literal
		p.advance()
		return &ast.AddressLiteral{Text: lit, Sp: p.span(start)}
	case token.StringLit:
		lit := p.tok.Literal
		p.advance()
		return &ast.StringLiteral{Value: unquote(lit), Sp: p.span(start)}
	case token.HexStringLit:
		lit := p.tok.Literal
		p.advance()
		return &ast.HexStringLiteral{Value: unquote(lit), Sp: p.span(start)}
	case token.UnicodeStringLit:
		lit := p.tok.Literal
		p.advance()
		return &ast.StringLiteral{Value: unquote(lit), Sp: p.span(start)}
	case token.KwNew:
		p.advance()
		t := p.parseTypeExpr()
		return &ast.NewExpr{Type: t, Sp: p.span(start)}
	case token.KwBool, token.KwAddress, token.KwString, token.KwBytes, token.KwInt, token.KwUint:
		// A type keyword used as an expression head is a cast: uint256(x).
		t := p.parseTypeExpr()
		p.expect(token.LParen)
		arg := p.parseExpr()
		p.expect(token.RParen)
		return &ast.CallExpr{Callee: typeExprAsCallee(t), Args: []ast.Expr{arg}, Sp: p.span(start)}
	default:
		p.errorf(diag.ErrParseUnexpected, "expected an expression, found %s %q", p.tok.Kind, p.tok.Literal)
		p.advance()
		return &ast.Ident{Name: "<error>", Sp: p.span(start)}
	}
}

// typeExprAsCallee wraps an elementary type so a cast like uint256(x) can
// be represented as an ordinary CallExpr; internal/sema recognizes this
// shape and resolves it as a cast rather than a function call.
func typeExprAsCallee(t ast.TypeExpr) ast.Expr {
	if et, ok := t.(*ast.ElementaryType); ok {
		name := et.Name
		if et.Width > 0 {
			name = et.Name + itoa(et.Width)
		}
		return &ast.Ident{Name: name, Sp: et.Sp}
	}
	return &ast.Ident{Name: "<error>"}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

// unquote strips the surrounding quote characters from a literal's raw
// text; escape sequences are left intact for internal/sema to interpret,
// matching how the lexer leaves them unprocessed.
func unquote(raw string) string {
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return strings.TrimSpace(raw)
}
