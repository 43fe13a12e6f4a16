package lexer

import "ttcnlang/internal/source"

type Kind int

const (
	TokenEOF Kind = iota
	TokenBad

	// Literals / identifiers
	TokenIdent
	TokenInt
	TokenFloat
	TokenString

	// Keywords
	TokenModule
	TokenType
	TokenComponent
	TokenExtends
	TokenFunction
	TokenTestcase
	TokenAltstep
	TokenRuns
	TokenOn
	TokenReturn
	TokenVar
	TokenConst
	TokenTimer
	TokenPort
	TokenTemplate
	TokenIn
	TokenOut
	TokenInout
	TokenIf
	TokenElse
	TokenWhile
	TokenDo
	TokenFor
	TokenGoto
	TokenLabel
	TokenSelect
	TokenCase
	TokenAlt
	TokenInterleave
	TokenRepeat
	TokenBreak
	TokenContinue
	TokenStop
	TokenLog
	TokenSetverdict
	TokenActivate
	TokenDeactivate
	TokenTry
	TokenCatch
	TokenAny
	TokenAll
	TokenValue
	TokenTrue
	TokenFalse
	TokenNot
	TokenAnd
	TokenOr
	TokenXor
	TokenMod
	TokenRem
	TokenPass
	TokenFail
	TokenInconc
	TokenNone
	TokenError

	// Punct
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenSemicolon
	TokenColon
	TokenDot

	// Operators
	TokenAssign // :=
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenAmp
	TokenEqEq
	TokenBangEq
	TokenLt
	TokenLtEq
	TokenGt
	TokenGtEq
	TokenArrow // ->
)

type Token struct {
	Kind   Kind
	Lexeme string
	Span   source.Span
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

var keywords = map[string]Kind{
	"module":     TokenModule,
	"type":       TokenType,
	"component":  TokenComponent,
	"extends":    TokenExtends,
	"function":   TokenFunction,
	"testcase":   TokenTestcase,
	"altstep":    TokenAltstep,
	"runs":       TokenRuns,
	"on":         TokenOn,
	"return":     TokenReturn,
	"var":        TokenVar,
	"const":      TokenConst,
	"timer":      TokenTimer,
	"port":       TokenPort,
	"template":   TokenTemplate,
	"in":         TokenIn,
	"out":        TokenOut,
	"inout":      TokenInout,
	"if":         TokenIf,
	"else":       TokenElse,
	"while":      TokenWhile,
	"do":         TokenDo,
	"for":        TokenFor,
	"goto":       TokenGoto,
	"label":      TokenLabel,
	"select":     TokenSelect,
	"case":       TokenCase,
	"alt":        TokenAlt,
	"interleave": TokenInterleave,
	"repeat":     TokenRepeat,
	"break":      TokenBreak,
	"continue":   TokenContinue,
	"stop":       TokenStop,
	"log":        TokenLog,
	"setverdict": TokenSetverdict,
	"activate":   TokenActivate,
	"deactivate": TokenDeactivate,
	"try":        TokenTry,
	"catch":      TokenCatch,
	"any":        TokenAny,
	"all":        TokenAll,
	"value":      TokenValue,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"not":        TokenNot,
	"and":        TokenAnd,
	"or":         TokenOr,
	"xor":        TokenXor,
	"mod":        TokenMod,
	"rem":        TokenRem,
	"pass":       TokenPass,
	"fail":       TokenFail,
	"inconc":     TokenInconc,
	"none":       TokenNone,
	"error":      TokenError,
}

// Keyword returns the keyword kind of an identifier-shaped lexeme.
func Keyword(lex string) (Kind, bool) {
	k, ok := keywords[lex]
	return k, ok
}
