package lang

import (
	"github.com/ardnew/artmpl/lang/lexer"
)

// Binding is where a free name of a template gets its value.
type Binding int

const (
	BindBuiltin Binding = iota // render-time helper such as print
	BindImport                 // entry of the import table
	BindData                   // field of the data value
)

func (b Binding) String() string {
	switch b {
	case BindBuiltin:
		return "builtin"
	case BindImport:
		return "import"
	default:
		return "data"
	}
}

// ScopeEntry is one resolved free name.
type ScopeEntry struct {
	Name  string
	Kind  Binding
	Value any // import value; nil for other bindings
}

// Internal parameter names, never entered in a scope.
const (
	dataName    = "$data"
	importsName = "$imports"
)

var builtins = map[string]struct{}{
	"print":    {},
	"include":  {},
	"$include": {},
}

// Builtins returns the names of the render-time helpers.
func Builtins() []string { return sortedKeys(builtins) }

// scope records the free names of a compilation, each resolved once.
type scope struct {
	entries  []ScopeEntry
	index    map[string]int
	operands map[string]struct{}
}

func newScope() *scope {
	return &scope{index: make(map[string]int), operands: make(map[string]struct{})}
}

// resolve enters name unless it is already known, reserved or internal.
// The first resolution wins.
func (s *scope) resolve(name string, imports map[string]any) {
	if _, ok := s.index[name]; ok || name == dataName || name == importsName || lexer.IsKeyword(name) {
		return
	}

	entry := ScopeEntry{Name: name, Kind: BindData}

	if _, ok := builtins[name]; ok {
		entry.Kind = BindBuiltin
	} else if v, ok := imports[name]; ok {
		entry.Kind, entry.Value = BindImport, v
	}

	s.index[name] = len(s.entries)
	s.entries = append(s.entries, entry)
}

func (s *scope) has(name string) bool {
	_, ok := s.index[name]

	return ok
}

// operand records that name is used as a value somewhere.
func (s *scope) operand(name string) {
	if s.has(name) {
		s.operands[name] = struct{}{}
	}
}

// shadowed returns the names that must not resolve to expression
// builtins: every builtin and import, and every data name used as a
// value. A data name that only ever appears as a callee keeps the
// expression builtin of the same name.
func (s *scope) shadowed() []string {
	var out []string

	for _, e := range s.entries {
		_, used := s.operands[e.Name]
		if e.Kind != BindData || used {
			out = append(out, e.Name)
		}
	}

	return out
}

func (s *scope) list() []ScopeEntry {
	return append([]ScopeEntry(nil), s.entries...)
}
