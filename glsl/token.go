// Package glsl provides the small amount of GLSL source analysis needed to
// merge independently written shader fragments into one program: a
// tokenizer, discovery of declared symbols and a prefix renamer.
package glsl

import "strings"

// TokenKind classifies a token.
type TokenKind int

const (
	Space TokenKind = iota
	Comment
	Identifier
	Number
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Space:
		return "space"
	case Comment:
		return "comment"
	case Identifier:
		return "identifier"
	case Number:
		return "number"
	default:
		return "punct"
	}
}

// Token is a lexical unit of GLSL source. Joining the text of all tokens
// reproduces the input exactly.
type Token struct {
	Kind TokenKind
	Text string
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// Tokenize splits src into tokens. It never fails: bytes that do not start
// any other token become single-byte punctuation.
func Tokenize(src string) []Token {
	var tokens []Token
	i := 0
	for i < len(src) {
		c := src[i]
		start := i
		switch {
		case isSpace(c):
			for i < len(src) && isSpace(src[i]) {
				i++
			}
			tokens = append(tokens, Token{Space, src[start:i]})
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			tokens = append(tokens, Token{Comment, src[start:i]})
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += end + 4
			}
			tokens = append(tokens, Token{Comment, src[start:i]})
		case isLetter(c):
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i])) {
				i++
			}
			tokens = append(tokens, Token{Identifier, src[start:i]})
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			i = scanNumber(src, i)
			tokens = append(tokens, Token{Number, src[start:i]})
		default:
			i++
			tokens = append(tokens, Token{Punct, src[start:i]})
		}
	}
	return tokens
}

// scanNumber consumes a numeric literal including fraction, exponent and
// suffix (1.0, .5, 2e-3, 0x1Fu, 1.0f).
func scanNumber(src string, start int) int {
	hex := strings.HasPrefix(src[start:], "0x") || strings.HasPrefix(src[start:], "0X")
	i := start
	for i < len(src) {
		c := src[i]
		switch {
		case isDigit(c) || isLetter(c) || c == '.':
			i++
		case !hex && (c == '+' || c == '-') && (src[i-1] == 'e' || src[i-1] == 'E') &&
			i+1 < len(src) && isDigit(src[i+1]):
			i++
		default:
			return i
		}
	}
	return i
}

// Join concatenates token text.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// significant returns the indexes of all tokens that are neither space nor
// comment.
func significant(tokens []Token) []int {
	idx := make([]int, 0, len(tokens))
	for i, t := range tokens {
		if t.Kind != Space && t.Kind != Comment {
			idx = append(idx, i)
		}
	}
	return idx
}
