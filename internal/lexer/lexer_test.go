package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ttcnlang/internal/source"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestLexBasic(t *testing.T) {
	f := source.NewFile("test.ttcn", `function f() return integer { var integer x := 1; return x; }`)
	toks := Lex(f)
	if len(toks) == 0 || toks[len(toks)-1].Kind != TokenEOF {
		t.Fatalf("expected EOF token")
	}
	if toks[0].Kind != TokenFunction {
		t.Fatalf("expected first token function, got %v", toks[0].Kind)
	}
}

func TestLexOperatorsAndComments(t *testing.T) {
	f := source.NewFile("test.ttcn", "p.receive(x) -> value v; /* skip\n me */ a != 1.5 // tail\n")
	require.Equal(t, []Kind{
		TokenIdent, TokenDot, TokenIdent, TokenLParen, TokenIdent, TokenRParen,
		TokenArrow, TokenValue, TokenIdent, TokenSemicolon,
		TokenIdent, TokenBangEq, TokenFloat, TokenEOF,
	}, kinds(Lex(f)))
}

func TestLexCharstringDoubledQuote(t *testing.T) {
	f := source.NewFile("test.ttcn", `log("say ""hi""")`)
	toks := Lex(f)
	require.Equal(t, TokenString, toks[2].Kind)
	require.Equal(t, `"say ""hi"""`, toks[2].Lexeme)
}

func TestLexRangeKeepsFileOffsets(t *testing.T) {
	f := source.NewFile("test.ttcn", "x := 1; y := 2;")
	toks := LexRange(f, 8, 15)
	require.Equal(t, TokenIdent, toks[0].Kind)
	require.Equal(t, 8, toks[0].Span.Start)
	require.Equal(t, TokenEOF, toks[len(toks)-1].Kind)
	require.Equal(t, 15, toks[len(toks)-1].Span.Start)
}
