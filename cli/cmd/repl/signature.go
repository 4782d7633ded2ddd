package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// call describes the innermost open call around the cursor.
type call struct {
	name string
	arg  int // zero-based index of the argument under the cursor
}

// detectCall finds the unclosed "(" before cursor and the callee name
// preceding it. It reports false when the cursor is not inside a call.
func detectCall(input string, cursor int) (call, bool) {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return call{}, false
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '$' && r != '_' && r != '.' && !isAlnum(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return call{}, false
	}

	c := call{name: name}
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				c.arg++
			}
		}
	}

	return c, true
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// builtinParams lists the parameters of the render helpers.
var builtinParams = map[string][]string{
	"print":    {"...values"},
	"include":  {"name", "data"},
	"$include": {"name", "data"},
}

// params returns the parameter list of the callable name, using reflection
// for function imports. It reports false for unknown or non-function names.
func params(name string, imports map[string]any) ([]string, bool) {
	if p, ok := builtinParams[name]; ok {
		return p, true
	}

	fn := reflect.ValueOf(imports[name])
	if fn.Kind() != reflect.Func {
		return nil, false
	}

	t := fn.Type()
	out := make([]string, t.NumIn())

	for i := range out {
		if t.IsVariadic() && i == t.NumIn()-1 {
			out[i] = "..." + t.In(i).Elem().String()
		} else {
			out[i] = t.In(i).String()
		}
	}

	return out, true
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	currentParamStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Underline(true)
)

// renderSignatureHint renders name(params...) with the parameter at arg
// highlighted. A variadic final parameter absorbs every later argument.
func renderSignatureHint(name string, params []string, arg int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		last := i == len(params)-1
		if i == arg || last && strings.HasPrefix(p, "...") && arg > i {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
