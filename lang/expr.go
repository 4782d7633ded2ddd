package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/artmpl/lang/lexer"
	"github.com/ardnew/artmpl/log"
)

// exprCompiler compiles template expressions to expr-lang programs.
type exprCompiler struct {
	options []expr.Option
	logger  log.Logger
}

// newExprCompiler returns a compiler whose programs resolve the names in
// shadow from the environment instead of expr-lang's builtins.
func newExprCompiler(logger log.Logger, shadow []string) *exprCompiler {
	opts := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Patch(&jsPatcher{logger: logger}),
		expr.Function(fnTruthy, func(args ...any) (any, error) {
			return truthy(args[0]), nil
		}, new(func(any) bool)),
		expr.Function(fnNot, func(args ...any) (any, error) {
			return !truthy(args[0]), nil
		}, new(func(any) bool)),
		expr.Function(fnAdd, func(args ...any) (any, error) {
			return add(args[0], args[1]), nil
		}, new(func(any, any) any)),
		expr.Function(fnLength, func(args ...any) (any, error) {
			return length(args[0])
		}, new(func(any) any)),
	}

	for _, name := range shadow {
		opts = append(opts, expr.DisableBuiltin(name))
	}

	return &exprCompiler{options: opts, logger: logger}
}

func (c *exprCompiler) compile(code string) (*vm.Program, error) {
	src := jsCompat(code)

	prog, err := expr.Compile(src, c.options...)
	if err != nil {
		return nil, ErrExprCompile.With(slog.String("expression", code)).Wrap(err)
	}

	return prog, nil
}

// jsCompat rewrites operators and literals expr-lang spells differently:
// "===" and "!==" become "==" and "!=", null and undefined become nil,
// template literals become concatenations, "/re/.test(s)" becomes
// "s matches re" and comments are dropped.
func jsCompat(code string) string {
	var (
		b    strings.Builder
		prev lexer.Token
		toks = lexer.Lex(code)
	)

	for i := 0; i < len(toks); i++ {
		t := toks[i]

		switch t.Kind {
		case lexer.Comment:
			b.WriteByte(' ')

			continue

		case lexer.Punctuator:
			switch t.Text {
			case "===":
				b.WriteString("==")
			case "!==":
				b.WriteString("!=")
			default:
				b.WriteString(t.Text)
			}

		case lexer.Identifier:
			if (t.Text == "null" || t.Text == "undefined") && !prev.IsPunct(".") && !prev.IsPunct("?.") {
				b.WriteString("nil")
			} else {
				b.WriteString(t.Text)
			}

		case lexer.Template:
			b.WriteString(templatePiece(t.Text))

		case lexer.Regex:
			arg, end, ok := regexTest(toks, i)
			if !ok {
				b.WriteString(t.Text)

				break
			}

			b.WriteString("((" + jsCompat(arg) + ") matches " + regexPattern(t.Text) + ")")
			i, t = end, toks[end]

		default:
			b.WriteString(t.Text)
		}

		if t.Significant() {
			prev = t
		}
	}

	return b.String()
}

// regexTest matches the call ".test(arg)" following the regex literal at
// toks[i]. It returns the argument text and the index of the closing
// parenthesis.
func regexTest(toks []lexer.Token, i int) (string, int, bool) {
	next := func(j int) int {
		for j++; j < len(toks) && !toks[j].Significant(); j++ {
		}

		return j
	}

	dot := next(i)
	name := next(dot)
	open := next(name)

	if open >= len(toks) || !toks[dot].IsPunct(".") ||
		!toks[name].Is(lexer.Identifier, "test") || !toks[open].IsPunct("(") {
		return "", 0, false
	}

	depth := 0

	for j := open + 1; j < len(toks); j++ {
		switch {
		case toks[j].IsPunct("("):
			depth++
		case toks[j].IsPunct(")") && depth > 0:
			depth--
		case toks[j].IsPunct(")"):
			arg := strings.TrimSpace(lexer.Join(toks[open+1 : j]))
			if arg == "" {
				return "", 0, false
			}

			return arg, j, true
		}
	}

	return "", 0, false
}

// regexPattern converts a regex literal to a quoted RE2 pattern. The
// flags i, m and s become inline flags; others are ignored.
func regexPattern(lit string) string {
	end := strings.LastIndexByte(lit, '/')
	body, flags := lit[1:end], lit[end+1:]

	var inline strings.Builder

	for _, f := range flags {
		if strings.ContainsRune("ims", f) && !strings.ContainsRune(inline.String(), f) {
			inline.WriteRune(f)
		}
	}

	if inline.Len() > 0 {
		body = "(?" + inline.String() + ")" + body
	}

	return strconv.Quote(body)
}

// templatePiece converts one piece of a template literal.
func templatePiece(text string) string {
	head := strings.HasPrefix(text, "`")
	open := strings.HasSuffix(text, "${") && len(text) >= 3
	body := text

	if head {
		body = body[1:]
	} else {
		body = strings.TrimPrefix(body, "}")
	}

	if open {
		body = body[:len(body)-2]
	} else {
		body = strings.TrimSuffix(body, "`")
	}

	lit := templateString(body)

	switch {
	case head && open:
		return "(" + lit + " + ("
	case head:
		return lit
	case open:
		return ") + " + lit + " + ("
	default:
		return ") + " + lit + ")"
	}
}

// templateString quotes the content of a template literal piece as a
// double-quoted string, keeping its escape sequences.
func templateString(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) && (s[i+1] == '`' || s[i+1] == '$') {
				b.WriteByte(s[i+1])
				i++

				continue
			}

			b.WriteByte(c)

			if i+1 < len(s) {
				b.WriteByte(s[i+1])
				i++
			}
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}

	b.WriteByte('"')

	return b.String()
}
