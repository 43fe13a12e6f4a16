package lexer

import (
	"unicode"

	"ttcnlang/internal/source"
)

func Lex(file *source.File) []Token {
	return LexRange(file, 0, len(file.Input))
}

// LexRange tokenizes file.Input[start:end]. Spans stay relative to the whole file.
func LexRange(file *source.File, start, end int) []Token {
	if end > len(file.Input) {
		end = len(file.Input)
	}
	if start > end {
		start = end
	}
	lx := &lexer{file: file, input: file.Input[:end], pos: start}
	for {
		lx.skipSpaceAndComments()
		start := lx.pos
		if lx.pos >= len(lx.input) {
			lx.emit(TokenEOF, "", start, start)
			break
		}
		ch := lx.peek()
		switch {
		case isIdentStart(ch):
			lx.lexIdentOrKeyword()
		case isDigit(ch):
			lx.lexNumber()
		default:
			lx.lexPunct()
		}
	}
	return lx.tokens
}

type lexer struct {
	file   *source.File
	input  string
	pos    int
	tokens []Token
}

func (lx *lexer) peek() byte { return lx.input[lx.pos] }

func (lx *lexer) next() byte {
	ch := lx.input[lx.pos]
	lx.pos++
	return ch
}

func (lx *lexer) emit(k Kind, lex string, start, end int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   k,
		Lexeme: lex,
		Span:   source.Span{File: lx.file, Start: start, End: end},
	})
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			lx.pos++
			continue
		}
		// line comment
		if ch == '/' && lx.pos+1 < len(lx.input) && lx.input[lx.pos+1] == '/' {
			lx.pos += 2
			for lx.pos < len(lx.input) && lx.input[lx.pos] != '\n' {
				lx.pos++
			}
			continue
		}
		// block comment; an unterminated one runs to the end of input
		if ch == '/' && lx.pos+1 < len(lx.input) && lx.input[lx.pos+1] == '*' {
			lx.pos += 2
			for lx.pos < len(lx.input) && !(lx.input[lx.pos] == '*' && lx.pos+1 < len(lx.input) && lx.input[lx.pos+1] == '/') {
				lx.pos++
			}
			lx.pos += 2
			if lx.pos > len(lx.input) {
				lx.pos = len(lx.input)
			}
			continue
		}
		return
	}
}

func (lx *lexer) lexIdentOrKeyword() {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
		lx.pos++
	}
	lex := lx.input[start:lx.pos]
	if k, ok := keywords[lex]; ok {
		lx.emit(k, lex, start, lx.pos)
		return
	}
	lx.emit(TokenIdent, lex, start, lx.pos)
}

func (lx *lexer) lexNumber() {
	start := lx.pos
	for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
		lx.pos++
	}
	if lx.pos+1 < len(lx.input) && lx.input[lx.pos] == '.' && isDigit(lx.input[lx.pos+1]) {
		lx.pos++
		for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
			lx.pos++
		}
		lx.emit(TokenFloat, lx.input[start:lx.pos], start, lx.pos)
		return
	}
	lx.emit(TokenInt, lx.input[start:lx.pos], start, lx.pos)
}

// lexString scans a charstring; a doubled quote is an escaped quote.
func (lx *lexer) lexString() {
	start := lx.pos
	lx.pos++ // opening "
	for lx.pos < len(lx.input) {
		ch := lx.next()
		if ch == '"' {
			if lx.pos < len(lx.input) && lx.input[lx.pos] == '"' {
				lx.pos++
				continue
			}
			lx.emit(TokenString, lx.input[start:lx.pos], start, lx.pos)
			return
		}
	}
	// unterminated
	lx.emit(TokenBad, lx.input[start:lx.pos], start, lx.pos)
}

func (lx *lexer) lexPunct() {
	start := lx.pos
	ch := lx.next()
	switch ch {
	case '(':
		lx.emit(TokenLParen, "(", start, lx.pos)
	case ')':
		lx.emit(TokenRParen, ")", start, lx.pos)
	case '{':
		lx.emit(TokenLBrace, "{", start, lx.pos)
	case '}':
		lx.emit(TokenRBrace, "}", start, lx.pos)
	case '[':
		lx.emit(TokenLBracket, "[", start, lx.pos)
	case ']':
		lx.emit(TokenRBracket, "]", start, lx.pos)
	case ',':
		lx.emit(TokenComma, ",", start, lx.pos)
	case ';':
		lx.emit(TokenSemicolon, ";", start, lx.pos)
	case ':':
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			lx.emit(TokenAssign, ":=", start, lx.pos)
		} else {
			lx.emit(TokenColon, ":", start, lx.pos)
		}
	case '.':
		lx.emit(TokenDot, ".", start, lx.pos)
	case '+':
		lx.emit(TokenPlus, "+", start, lx.pos)
	case '-':
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '>' {
			lx.pos++
			lx.emit(TokenArrow, "->", start, lx.pos)
		} else {
			lx.emit(TokenMinus, "-", start, lx.pos)
		}
	case '*':
		lx.emit(TokenStar, "*", start, lx.pos)
	case '/':
		lx.emit(TokenSlash, "/", start, lx.pos)
	case '&':
		lx.emit(TokenAmp, "&", start, lx.pos)
	case '!':
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			lx.emit(TokenBangEq, "!=", start, lx.pos)
		} else {
			lx.emit(TokenBad, "!", start, lx.pos)
		}
	case '=':
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			lx.emit(TokenEqEq, "==", start, lx.pos)
		} else {
			lx.emit(TokenBad, "=", start, lx.pos)
		}
	case '<':
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			lx.emit(TokenLtEq, "<=", start, lx.pos)
		} else {
			lx.emit(TokenLt, "<", start, lx.pos)
		}
	case '>':
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			lx.emit(TokenGtEq, ">=", start, lx.pos)
		} else {
			lx.emit(TokenGt, ">", start, lx.pos)
		}
	case '"':
		lx.pos-- // back to opening
		lx.lexString()
	default:
		lx.emit(TokenBad, string(ch), start, lx.pos)
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
