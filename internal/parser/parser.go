// Package parser builds an internal/ast tree from a token stream, using
// the same hand-rolled recursive-descent style as the teacher's parser:
// a small peek/advance token buffer, one parseX method per grammar
// production, and diagnostics appended to a shared bag instead of a
// returned error, so a syntax error in one declaration does not abort
// the whole file.
package parser

import (
	"strconv"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/lexer"
	"github.com/mickey951112/solang/internal/source"
	"github.com/mickey951112/solang/internal/token"
)

// Parser holds the lookahead buffer for one source unit.
type Parser struct {
	file int
	lex  *lexer.Lexer
	bag  *diag.Bag

	tok  token.Token // current
	next token.Token // one token of lookahead
	doc  string       // pending doc comment, attached to the next declaration
}

// ParseFile lexes and parses src as source unit file, appending any
// diagnostics to bag. It always returns a non-nil SourceFile, even when
// diagnostics were recorded, so later stages can still walk whatever
// parsed successfully.
func ParseFile(file int, src []byte, bag *diag.Bag) *ast.SourceFile {
	p := &Parser{file: file, lex: lexer.New(file, src), bag: bag}
	p.advance()
	p.advance()
	return p.parseSourceFile()
}

func (p *Parser) advance() {
	p.tok = p.next
	for {
		p.next = p.lex.Next()
		if p.next.Kind == token.DocComment {
			p.doc = p.next.Literal
			continue
		}
		break
	}
}

func (p *Parser) at(k token.Kind) bool { return p.tok.Kind == k }

func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.at(k) {
		p.errorf(diag.ErrParseUnexpected, "expected %s, found %s %q", k, p.tok.Kind, p.tok.Literal)
		return p.tok
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) errorf(code diag.Code, format string, args ...interface{}) {
	if p.bag != nil {
		p.bag.Errorf(code, p.tok.Span, format, args...)
	}
}

func (p *Parser) takeDoc() string {
	d := p.doc
	p.doc = ""
	return d
}

func (p *Parser) span(start source.Span) source.Span {
	return source.Span{File: start.File, Start: start.Start, End: p.tok.Span.Start}
}

// syncToTopLevel skips tokens until the start of a plausible top-level or
// contract-body declaration, so one malformed declaration does not cascade
// into spurious errors for everything after it.
func (p *Parser) syncToTopLevel() {
	for !p.at(token.EOF) {
		switch p.tok.Kind {
		case token.KwContract, token.KwInterface, token.KwLibrary, token.KwAbstract,
			token.KwFunction, token.KwStruct, token.KwEnum, token.KwEvent, token.KwError,
			token.KwUsing, token.RBrace:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseSourceFile() *ast.SourceFile {
	start := p.tok.Span
	f := &ast.SourceFile{}
	for p.at(token.KwPragma) {
		f.Pragmas = append(f.Pragmas, p.parsePragma())
	}
	for p.at(token.KwImport) {
		f.Imports = append(f.Imports, p.parseImport())
	}
	for !p.at(token.EOF) {
		d := p.parseTopDecl()
		if d != nil {
			f.Decls = append(f.Decls, d)
		} else {
			p.syncToTopLevel()
			if p.at(token.EOF) {
				break
			}
			if p.tok.Kind != token.RBrace {
				continue
			}
			p.advance()
		}
	}
	f.Sp = p.span(start)
	return f
}

func (p *Parser) parsePragma() *ast.Pragma {
	start := p.tok.Span
	p.advance() // 'pragma'
	var text string
	for !p.at(token.Semicolon) && !p.at(token.EOF) {
		text += p.tok.Literal + " "
		p.advance()
	}
	p.accept(token.Semicolon)
	p.bag.Warnf(diag.WarnPragmaIgnored, start, "pragma %q recorded, version constraints are not enforced", text)
	return &ast.Pragma{Text: text, Sp: p.span(start)}
}

func (p *Parser) parseImport() *ast.Import {
	start := p.tok.Span
	p.advance() // 'import'
	imp := &ast.Import{}
	if p.at(token.StringLit) {
		imp.Path = p.tok.Literal
		p.advance()
	}
	p.accept(token.KwAs)
	if p.at(token.Ident) {
		imp.Alias = p.tok.Literal
		p.advance()
	}
	p.accept(token.Semicolon)
	imp.Sp = p.span(start)
	return imp
}

func (p *Parser) parseTopDecl() ast.Decl {
	switch p.tok.Kind {
	case token.KwContract, token.KwInterface, token.KwLibrary, token.KwAbstract:
		return p.parseContractDecl()
	case token.KwStruct:
		return p.parseStructDecl()
	case token.KwEnum:
		return p.parseEnumDecl()
	case token.KwError:
		return p.parseErrorDecl()
	case token.KwFunction:
		return p.parseFunctionDecl()
	default:
		p.errorf(diag.ErrParseUnexpected, "expected a declaration, found %s %q", p.tok.Kind, p.tok.Literal)
		p.advance()
		return nil
	}
}

func (p *Parser) parseContractDecl() *ast.ContractDecl {
	start := p.tok.Span
	doc := p.takeDoc()
	kind := ast.ContractKindContract
	if p.accept(token.KwAbstract) {
		kind = ast.ContractKindAbstract
		p.expect(token.KwContract)
	} else {
		switch p.tok.Kind {
		case token.KwInterface:
			kind = ast.ContractKindInterface
			p.advance()
		case token.KwLibrary:
			kind = ast.ContractKindLibrary
			p.advance()
		default:
			p.expect(token.KwContract)
		}
	}
	name := p.expect(token.Ident).Literal
	d := &ast.ContractDecl{Kind: kind, Name: name, Doc: doc}
	if p.accept(token.KwIs) {
		d.Bases = append(d.Bases, p.parseInheritSpecifier())
		for p.accept(token.Comma) {
			d.Bases = append(d.Bases, p.parseInheritSpecifier())
		}
	}
	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		member := p.parseContractMember()
		if member != nil {
			d.Body = append(d.Body, member)
		} else {
			p.syncToTopLevel()
		}
	}
	p.expect(token.RBrace)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseInheritSpecifier() *ast.InheritSpecifier {
	start := p.tok.Span
	name := p.expect(token.Ident).Literal
	s := &ast.InheritSpecifier{Name: name}
	if p.accept(token.LParen) {
		for !p.at(token.RParen) && !p.at(token.EOF) {
			s.Args = append(s.Args, p.parseExpr())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
	}
	s.Sp = p.span(start)
	return s
}

func (p *Parser) parseContractMember() ast.Decl {
	switch p.tok.Kind {
	case token.KwStruct:
		return p.parseStructDecl()
	case token.KwEnum:
		return p.parseEnumDecl()
	case token.KwUsing:
		return p.parseUsingDirective()
	case token.KwEvent:
		return p.parseEventDecl()
	case token.KwError:
		return p.parseErrorDecl()
	case token.KwFunction, token.KwConstructor, token.KwModifier, token.KwReceive, token.KwFallback:
		return p.parseFunctionDecl()
	case token.Ident, token.KwMapping, token.KwBool, token.KwAddress, token.KwString, token.KwBytes,
		token.KwInt, token.KwUint:
		return p.parseStateVarDecl()
	default:
		p.errorf(diag.ErrParseUnexpected, "unexpected %s %q inside contract body", p.tok.Kind, p.tok.Literal)
		p.advance()
		return nil
	}
}

func (p *Parser) parseStructDecl() *ast.StructDecl {
	start := p.tok.Span
	p.expect(token.KwStruct)
	name := p.expect(token.Ident).Literal
	p.expect(token.LBrace)
	d := &ast.StructDecl{Name: name}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		ft := p.parseTypeExpr()
		fname := p.expect(token.Ident).Literal
		p.expect(token.Semicolon)
		d.Fields = append(d.Fields, &ast.StructField{Name: fname, Type: ft})
	}
	p.expect(token.RBrace)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseEnumDecl() *ast.EnumDecl {
	start := p.tok.Span
	p.expect(token.KwEnum)
	name := p.expect(token.Ident).Literal
	p.expect(token.LBrace)
	d := &ast.EnumDecl{Name: name}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		d.Values = append(d.Values, p.expect(token.Ident).Literal)
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseUsingDirective() *ast.UsingDirective {
	start := p.tok.Span
	p.expect(token.KwUsing)
	lib := p.expect(token.Ident).Literal
	p.expect(token.KwFor)
	d := &ast.UsingDirective{LibraryName: lib}
	if !p.accept(token.Star) {
		d.TargetType = p.parseTypeExpr()
	}
	p.expect(token.Semicolon)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseEventDecl() *ast.EventDecl {
	start := p.tok.Span
	p.expect(token.KwEvent)
	name := p.expect(token.Ident).Literal
	p.expect(token.LParen)
	d := &ast.EventDecl{Name: name}
	for !p.at(token.RParen) && !p.at(token.EOF) {
		t := p.parseTypeExpr()
		indexed := p.accept(token.KwIndexed)
		pname := ""
		if p.at(token.Ident) {
			pname = p.tok.Literal
			p.advance()
		}
		d.Params = append(d.Params, &ast.EventParam{Name: pname, Type: t, Indexed: indexed})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	if p.at(token.Ident) && p.tok.Literal == "anonymous" {
		d.Anonymous = true
		p.advance()
	}
	p.expect(token.Semicolon)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseErrorDecl() *ast.ErrorDecl {
	start := p.tok.Span
	p.expect(token.KwError)
	name := p.expect(token.Ident).Literal
	p.expect(token.LParen)
	d := &ast.ErrorDecl{Name: name}
	for !p.at(token.RParen) && !p.at(token.EOF) {
		d.Params = append(d.Params, p.parseParam())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	p.expect(token.Semicolon)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseStateVarDecl() *ast.StateVarDecl {
	start := p.tok.Span
	doc := p.takeDoc()
	t := p.parseTypeExpr()
	d := &ast.StateVarDecl{Type: t, Doc: doc}
loop:
	for {
		switch p.tok.Kind {
		case token.KwPublic:
			d.Visibility = ast.VisPublic
			p.advance()
		case token.KwPrivate:
			d.Visibility = ast.VisPrivate
			p.advance()
		case token.KwInternal:
			d.Visibility = ast.VisInternal
			p.advance()
		case token.KwConstant:
			d.Constant = true
			p.advance()
		case token.KwImmutable:
			d.Immutable = true
			p.advance()
		default:
			break loop
		}
	}
	d.Name = p.expect(token.Ident).Literal
	if p.accept(token.Assign) {
		d.Init = p.parseExpr()
	}
	p.expect(token.Semicolon)
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseParam() *ast.Param {
	start := p.tok.Span
	t := p.parseTypeExpr()
	loc := ast.LocDefault
	switch p.tok.Kind {
	case token.KwStorage:
		loc = ast.LocStorage
		p.advance()
	case token.KwMemory:
		loc = ast.LocMemory
		p.advance()
	case token.KwCalldata:
		loc = ast.LocCalldata
		p.advance()
	}
	name := ""
	if p.at(token.Ident) {
		name = p.tok.Literal
		p.advance()
	}
	return &ast.Param{Name: name, Type: t, Location: loc, Sp: p.span(start)}
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	start := p.tok.Span
	doc := p.takeDoc()
	d := &ast.FunctionDecl{Doc: doc}
	switch p.tok.Kind {
	case token.KwConstructor:
		d.Kind = ast.FuncKindConstructor
		p.advance()
	case token.KwModifier:
		d.Kind = ast.FuncKindModifier
		p.advance()
		d.Name = p.expect(token.Ident).Literal
	case token.KwReceive:
		d.Kind = ast.FuncKindReceive
		p.advance()
	case token.KwFallback:
		d.Kind = ast.FuncKindFallback
		p.advance()
	default:
		d.Kind = ast.FuncKindFunction
		p.expect(token.KwFunction)
		d.Name = p.expect(token.Ident).Literal
	}

	if p.accept(token.At) {
		// @selector("...") override
		p.advance() // consume whatever identifier follows '@'; kept lenient for unknown attributes
		if p.accept(token.LParen) {
			if p.at(token.StringLit) {
				d.SelectorOverride = p.tok.Literal
				p.advance()
			}
			p.expect(token.RParen)
		}
	}

	p.expect(token.LParen)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		d.Params = append(d.Params, p.parseParam())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)

modifiers:
	for {
		switch p.tok.Kind {
		case token.KwPublic:
			d.Visibility = ast.VisPublic
			p.advance()
		case token.KwPrivate:
			d.Visibility = ast.VisPrivate
			p.advance()
		case token.KwInternal:
			d.Visibility = ast.VisInternal
			p.advance()
		case token.KwExternal:
			d.Visibility = ast.VisExternal
			p.advance()
		case token.KwPure:
			d.Mutability = ast.MutPure
			p.advance()
		case token.KwView:
			d.Mutability = ast.MutView
			p.advance()
		case token.KwPayable:
			d.Mutability = ast.MutPayable
			p.advance()
		case token.KwVirtual:
			d.Virtual = true
			p.advance()
		case token.KwOverride:
			d.Override = true
			p.advance()
			if p.accept(token.LParen) {
				for !p.at(token.RParen) && !p.at(token.EOF) {
					p.advance()
				}
				p.expect(token.RParen)
			}
		case token.KwReturns:
			p.advance()
			p.expect(token.LParen)
			for !p.at(token.RParen) && !p.at(token.EOF) {
				d.Returns = append(d.Returns, p.parseParam())
				if !p.accept(token.Comma) {
					break
				}
			}
			p.expect(token.RParen)
		case token.Ident:
			d.Modifiers = append(d.Modifiers, p.parseModifierInvocation())
		default:
			break modifiers
		}
	}

	if p.at(token.LBrace) {
		d.Body = p.parseBlockStmt()
	} else {
		p.expect(token.Semicolon)
	}
	d.Sp = p.span(start)
	return d
}

func (p *Parser) parseModifierInvocation() *ast.ModifierInvocation {
	start := p.tok.Span
	name := p.expect(token.Ident).Literal
	m := &ast.ModifierInvocation{Name: name}
	if p.accept(token.LParen) {
		for !p.at(token.RParen) && !p.at(token.EOF) {
			m.Args = append(m.Args, p.parseExpr())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
	}
	m.Sp = p.span(start)
	return m
}

// parseTypeExpr parses a type, including array suffixes and mapping types.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	start := p.tok.Span
	var base ast.TypeExpr
	switch p.tok.Kind {
	case token.KwMapping:
		p.advance()
		p.expect(token.LParen)
		key := p.parseTypeExpr()
		p.expect(token.FatArrow)
		value := p.parseTypeExpr()
		p.expect(token.RParen)
		base = &ast.MappingType{Key: key, Value: value, Sp: p.span(start)}
	case token.KwBool:
		p.advance()
		base = &ast.ElementaryType{Name: "bool", Sp: p.span(start)}
	case token.KwAddress:
		p.advance()
		payable := p.accept(token.KwPayable)
		base = &ast.ElementaryType{Name: "address", Payable: payable, Sp: p.span(start)}
	case token.KwString:
		p.advance()
		base = &ast.ElementaryType{Name: "string", Sp: p.span(start)}
	case token.KwBytes:
		name := p.tok.Literal
		p.advance()
		width, _ := fixedBytesWidth(name) // 0 when name is bare "bytes" (dynamic)
		base = &ast.ElementaryType{Name: "bytes", Width: width, Sp: p.span(start)}
	case token.KwInt, token.KwUint:
		name := p.tok.Literal
		width := elementaryWidth(name)
		canonical := "int"
		if name == "uint" || (len(name) >= 4 && name[:4] == "uint") {
			canonical = "uint"
		}
		p.advance()
		base = &ast.ElementaryType{Name: canonical, Width: width, Sp: p.span(start)}
	case token.Ident:
		lit := p.tok.Literal
		p.advance()
		base = &ast.NamedType{Name: lit, Sp: p.span(start)}
	default:
		p.errorf(diag.ErrParseUnexpected, "expected a type, found %s %q", p.tok.Kind, p.tok.Literal)
		p.advance()
		base = &ast.NamedType{Name: "<error>", Sp: p.span(start)}
	}
	for p.at(token.LBracket) {
		p.advance()
		var length ast.Expr
		if !p.at(token.RBracket) {
			length = p.parseExpr()
		}
		p.expect(token.RBracket)
		base = &ast.ArrayType{Elem: base, Length: length, Sp: p.span(start)}
	}
	return base
}

// elementaryWidth extracts the bit width suffix from an int/uint type
// name ("uint128" -> 128), defaulting to the Solidity-standard 256 for the
// bare "int"/"uint" keywords.
func elementaryWidth(name string) int {
	suffix := ""
	switch {
	case len(name) > len("uint") && name[:4] == "uint":
		suffix = name[4:]
	case len(name) > len("int") && name[:3] == "int":
		suffix = name[3:]
	}
	if suffix == "" {
		return 256
	}
	if n, err := strconv.Atoi(suffix); err == nil {
		return n
	}
	return 256
}

func fixedBytesWidth(name string) (int, bool) {
	if len(name) < 6 || name[:5] != "bytes" {
		return 0, false
	}
	n, err := strconv.Atoi(name[5:])
	if err != nil || n < 1 || n > 32 {
		return 0, false
	}
	return n, true
}
