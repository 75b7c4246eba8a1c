package lexer

import (
	"testing"

	"github.com/mickey951112/solang/internal/token"
)

func scanAll(src string) []token.Token {
	l := New(0, []byte(src))
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	toks := scanAll("a += b <<= c ** d -> e => f")
	want := []token.Kind{
		token.Ident, token.PlusAssign, token.Ident, token.ShlAssign, token.Ident,
		token.StarStar, token.Ident, token.Arrow, token.Ident, token.FatArrow,
		token.Ident, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexerNumberKinds(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
		lit  string
	}{
		{"1_000_000", token.Number, "1000000"},
		{"0x1a2b", token.HexNumber, "0x1a2b"},
		{"0x1234567890123456789012345678901234567890", token.AddressLit, "0x1234567890123456789012345678901234567890"},
		{"1.5", token.RationalLit, "1.5"},
		{"2.5e10", token.RationalLit, "2.5e10"},
	}
	for _, c := range cases {
		toks := scanAll(c.src)
		if len(toks) < 1 || toks[0].Kind != c.kind {
			t.Fatalf("%q: got kind %v, want %v", c.src, toks[0].Kind, c.kind)
		}
		if toks[0].Literal != c.lit {
			t.Fatalf("%q: got literal %q, want %q", c.src, toks[0].Literal, c.lit)
		}
	}
}

func TestLexerStringAndHexStringLiterals(t *testing.T) {
	toks := scanAll(`"hello" hex"deadbeef" unicode"snowman"`)
	if toks[0].Kind != token.StringLit || toks[0].Literal != `"hello"` {
		t.Fatalf("unexpected string token: %#v", toks[0])
	}
	if toks[1].Kind != token.HexStringLit || toks[1].Literal != `"deadbeef"` {
		t.Fatalf("unexpected hex string token: %#v", toks[1])
	}
	if toks[2].Kind != token.UnicodeStringLit || toks[2].Literal != `"snowman"` {
		t.Fatalf("unexpected unicode string token: %#v", toks[2])
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	toks := scanAll("contract Foo is Bar { function baz() external view returns (uint256) {} }")
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	want := []token.Kind{
		token.KwContract, token.Ident, token.KwIs, token.Ident, token.LBrace,
		token.KwFunction, token.Ident, token.LParen, token.RParen,
		token.KwExternal, token.KwView, token.KwReturns, token.LParen, token.KwUint,
		token.RParen, token.LBrace, token.RBrace, token.RBrace, token.EOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("token %d: got %s, want %s", i, kinds[i], k)
		}
	}
}

func TestLexerDocCommentAttachedAsToken(t *testing.T) {
	toks := scanAll("/// computes the hash\nfunction f() {}")
	if toks[0].Kind != token.DocComment {
		t.Fatalf("expected doc comment token, got %s", toks[0].Kind)
	}
	if toks[1].Kind != token.KwFunction {
		t.Fatalf("expected function keyword after doc comment, got %s", toks[1].Kind)
	}
}

func TestLexerOrdinaryCommentsSkipped(t *testing.T) {
	toks := scanAll("a // trailing comment\n/* block */ b")
	if len(toks) != 3 { // Ident a, Ident b, EOF
		t.Fatalf("expected comments to be skipped, got %v", toks)
	}
}

func TestLexerUnterminatedStringIsIllegal(t *testing.T) {
	toks := scanAll(`"unterminated`)
	if toks[0].Kind != token.Illegal {
		t.Fatalf("expected illegal token for unterminated string, got %s", toks[0].Kind)
	}
}

func TestLexerSpansAreFileRelative(t *testing.T) {
	toks := scanAll("  foo")
	if toks[0].Span.Start != 2 || toks[0].Span.End != 5 {
		t.Fatalf("unexpected span: %+v", toks[0].Span)
	}
}
