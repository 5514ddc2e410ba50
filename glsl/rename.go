package glsl

import (
	"unicode"
	"unicode/utf8"
)

// SymbolKind describes where a private symbol was declared.
type SymbolKind int

const (
	Function SymbolKind = iota
	Varying
	Uniform
	Define
)

func (k SymbolKind) String() string {
	switch k {
	case Function:
		return "function"
	case Varying:
		return "varying"
	case Uniform:
		return "uniform"
	default:
		return "define"
	}
}

// Symbol is a private name declared by a shader fragment.
type Symbol struct {
	Kind SymbolKind
	Name string
}

// Prefix inserts prefix before name and capitalizes the first letter of
// name: Prefix("e0", "mainImage") == "e0MainImage".
func Prefix(prefix, name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return prefix + name
	}
	return prefix + string(unicode.ToUpper(r)) + name[size:]
}

// Renamer collects the private symbols of one shader fragment and rewrites
// sources so that every use of those symbols carries a unique prefix.
type Renamer struct {
	prefix  string
	symbols []Symbol
	table   map[string]string
}

// NewRenamer returns an empty renamer for the given prefix.
func NewRenamer(prefix string) *Renamer {
	return &Renamer{prefix: prefix, table: make(map[string]string)}
}

// Prefix returns the prefix this renamer inserts.
func (r *Renamer) Prefix() string { return r.prefix }

// Add records symbols of the given kind. Names that are already known are
// ignored.
func (r *Renamer) Add(kind SymbolKind, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := r.table[name]; ok {
			continue
		}
		r.symbols = append(r.symbols, Symbol{Kind: kind, Name: name})
		r.table[name] = Prefix(r.prefix, name)
	}
}

// Symbols returns the recorded symbols in insertion order.
func (r *Renamer) Symbols() []Symbol { return r.symbols }

// Count returns the number of recorded symbols of the given kind.
func (r *Renamer) Count(kind SymbolKind) int {
	n := 0
	for _, s := range r.symbols {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Name returns the renamed form of name, or name itself if it is not a
// recorded symbol.
func (r *Renamer) Name(name string) string {
	if renamed, ok := r.table[name]; ok {
		return renamed
	}
	return name
}

// Apply rewrites every recorded symbol in src.
func (r *Renamer) Apply(src string) string {
	return Replace(src, r.table)
}

// Replace renames identifiers of src according to names. Identifiers that
// directly follow a '.' are struct fields or swizzles and are left alone,
// as is everything inside comments.
func Replace(src string, names map[string]string) string {
	if src == "" || len(names) == 0 {
		return src
	}
	tokens := Tokenize(src)
	changed := false
	for i, t := range tokens {
		if t.Kind != Identifier || memberAccess(tokens, i) {
			continue
		}
		if renamed, ok := names[t.Text]; ok {
			tokens[i].Text = renamed
			changed = true
		}
	}
	if !changed {
		return src
	}
	return Join(tokens)
}
