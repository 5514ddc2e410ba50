package glsl

import "strings"

var keywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "return": true, "break": true,
	"continue": true, "discard": true, "default": true, "struct": true,
}

var declQualifiers = map[string]bool{
	"lowp": true, "mediump": true, "highp": true,
	"flat": true, "smooth": true, "centroid": true, "noperspective": true,
	"invariant": true,
}

// directiveMask marks every token that belongs to a preprocessor line,
// honoring backslash continuations.
func directiveMask(tokens []Token) []bool {
	mask := make([]bool, len(tokens))
	in, lineStart := false, true
	for i, t := range tokens {
		switch t.Kind {
		case Space:
			if strings.Contains(t.Text, "\n") {
				if i == 0 || tokens[i-1].Text != "\\" {
					in = false
				}
				lineStart = true
			}
		case Comment:
		default:
			if lineStart && t.Kind == Punct && t.Text == "#" {
				in = true
			}
			lineStart = false
		}
		mask[i] = in
	}
	return mask
}

// scope is a significant-token view over a token stream with the brace
// depth of every position precomputed.
type scope struct {
	tokens []Token
	sig    []int
	depth  []int
	paren  []int
}

func newScope(tokens []Token) *scope {
	mask := directiveMask(tokens)
	s := &scope{tokens: tokens}
	braces, parens := 0, 0
	for _, i := range significant(tokens) {
		if mask[i] {
			continue
		}
		t := tokens[i]
		if t.Kind == Punct {
			switch t.Text {
			case "}":
				braces--
			case ")":
				parens--
			}
		}
		s.sig = append(s.sig, i)
		s.depth = append(s.depth, braces)
		s.paren = append(s.paren, parens)
		if t.Kind == Punct {
			switch t.Text {
			case "{":
				braces++
			case "(":
				parens++
			}
		}
	}
	return s
}

func (s *scope) tok(k int) Token {
	if k < 0 || k >= len(s.sig) {
		return Token{Kind: Space}
	}
	return s.tokens[s.sig[k]]
}

func (s *scope) is(k int, text string) bool {
	t := s.tok(k)
	return t.Kind == Punct && t.Text == text
}

// closing returns the position of the parenthesis that closes the one at k.
func (s *scope) closing(k int) int {
	level := 0
	for j := k; j < len(s.sig); j++ {
		switch {
		case s.is(j, "("):
			level++
		case s.is(j, ")"):
			level--
			if level == 0 {
				return j
			}
		}
	}
	return -1
}

// definition returns the positions of the opening and closing parenthesis
// of the top-level function definition at k, where k is the position of the
// function name.
func (s *scope) definition(k int) (open, close int, ok bool) {
	name, typ := s.tok(k), s.tok(k-1)
	if s.depth[k] != 0 || s.paren[k] != 0 {
		return 0, 0, false
	}
	if name.Kind != Identifier || typ.Kind != Identifier || keywords[name.Text] || keywords[typ.Text] {
		return 0, 0, false
	}
	if !s.is(k+1, "(") {
		return 0, 0, false
	}
	close = s.closing(k + 1)
	if close < 0 || !s.is(close+1, "{") {
		return 0, 0, false
	}
	return k + 1, close, true
}

// Functions returns the names of all top-level function definitions in
// declaration order. Overloads are reported once.
func Functions(tokens []Token) []string {
	s := newScope(tokens)
	var names []string
	seen := make(map[string]bool)
	for k := 1; k < len(s.sig); k++ {
		if _, _, ok := s.definition(k); !ok {
			continue
		}
		name := s.tok(k).Text
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Parameters reports the number of parameters of the first top-level
// definition of function fn.
func Parameters(tokens []Token, fn string) (int, bool) {
	s := newScope(tokens)
	for k := 1; k < len(s.sig); k++ {
		if s.tok(k).Text != fn {
			continue
		}
		open, close, ok := s.definition(k)
		if !ok {
			continue
		}
		if close == open+1 || (close == open+2 && s.tok(open+1).Text == "void") {
			return 0, true
		}
		n := 1
		level := 0
		for j := open + 1; j < close; j++ {
			switch {
			case s.is(j, "("), s.is(j, "["):
				level++
			case s.is(j, ")"), s.is(j, "]"):
				level--
			case s.is(j, ",") && level == 0:
				n++
			}
		}
		return n, true
	}
	return 0, false
}

// Varyings returns the names declared by top-level "out" or "varying"
// declarations. It is meant for vertex shader sources.
func Varyings(tokens []Token) []string {
	s := newScope(tokens)
	var names []string
	for k := 0; k < len(s.sig); k++ {
		t := s.tok(k)
		if t.Kind != Identifier || (t.Text != "out" && t.Text != "varying") {
			continue
		}
		if s.depth[k] != 0 || s.paren[k] != 0 {
			continue
		}
		j := k + 1
		for s.tok(j).Kind == Identifier && declQualifiers[s.tok(j).Text] {
			j++
		}
		// type
		if s.tok(j).Kind != Identifier {
			continue
		}
		j++
		for {
			name := s.tok(j)
			if name.Kind != Identifier {
				break
			}
			names = append(names, name.Text)
			j++
			for j < len(s.sig) && !s.is(j, ",") && !s.is(j, ";") {
				j++
			}
			if !s.is(j, ",") {
				break
			}
			j++
		}
		k = j
	}
	return names
}

// HasIdentifier reports whether name is used as an identifier outside of
// comments and member access.
func HasIdentifier(tokens []Token, name string) bool {
	for i, t := range tokens {
		if t.Kind == Identifier && t.Text == name && !memberAccess(tokens, i) {
			return true
		}
	}
	return false
}

// memberAccess reports whether the identifier at i follows a '.',
// ignoring whitespace and comments in between.
func memberAccess(tokens []Token, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch tokens[j].Kind {
		case Space, Comment:
			continue
		case Punct:
			return tokens[j].Text == "."
		}
		return false
	}
	return false
}
