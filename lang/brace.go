package lang

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/ardnew/artmpl/lang/lexer"
)

type braceSyntax struct{}

// Brace returns the "{{ }}" tag family: if/else/each/set/print/include
// directives, filter pipes and plain expressions.
func Brace() Syntax { return braceSyntax{} }

func (braceSyntax) Name() string { return "brace" }

func (braceSyntax) Delims() (string, string) { return "{{", "}}" }

func (braceSyntax) Rewrite(seg *Segment) (Directive, error) {
	code := strings.TrimSpace(seg.Code)

	if len(code) >= 2 && code[0] == '%' && code[len(code)-1] == '%' {
		return Directive{Code: strings.TrimSpace(code[1 : len(code)-1])}, nil
	}

	out := OutputEscaped
	if strings.HasPrefix(code, "@") || strings.HasPrefix(code, "#") {
		out, code = OutputRaw, strings.TrimSpace(code[1:])
	}

	key, rest := cutWord(code)

	switch key {
	case "if":
		if rest == "" {
			return Directive{}, rewriteError(seg, "if requires a condition")
		}

		return Directive{Code: "if (" + rest + ") {"}, nil

	case "else":
		if rest == "" {
			return Directive{Code: "} else {"}, nil
		}

		if k, cond := cutWord(rest); k == "if" && cond != "" {
			return Directive{Code: "} else if (" + cond + ") {"}, nil
		}

		return Directive{}, rewriteError(seg, "else accepts only an if clause")

	case "/if":
		return Directive{Code: "}"}, nil

	case "/each":
		return Directive{Code: "})"}, nil

	case "each":
		return rewriteEach(seg, rest)

	case "set":
		if rest == "" {
			return Directive{}, rewriteError(seg, "set requires an assignment")
		}

		return Directive{Code: "var " + rest}, nil

	case "echo":
		if rest == "" {
			return Directive{}, rewriteError(seg, "echo requires an expression")
		}

		expr, err := pipe(rest)
		if err != nil {
			return Directive{}, rewriteError(seg, err.Error())
		}

		return Directive{Code: expr, Output: out}, nil

	case "print":
		return Directive{Code: "print(" + strings.Join(splitArgs(lexer.Lex(rest)), ", ") + ")"}, nil

	case "include":
		args := splitArgs(lexer.Lex(rest))
		if len(args) == 0 {
			return Directive{}, rewriteError(seg, "include requires a template name")
		}

		return Directive{Code: "include(" + strings.Join(args, ", ") + ")", Output: OutputRaw}, nil
	}

	if isHelperCall(seg.Imports, key, rest) {
		return Directive{
			Code:   key + "(" + strings.Join(splitArgs(lexer.Lex(rest)), ", ") + ")",
			Output: out,
		}, nil
	}

	expr, err := pipe(code)
	if err != nil {
		return Directive{}, rewriteError(seg, err.Error())
	}

	return Directive{Code: expr, Output: out}, nil
}

func rewriteError(seg *Segment, msg string) error {
	return ErrRewrite.With(
		slog.String("source", seg.Source),
		slog.Int("line", seg.Line),
	).Wrap(NewError(msg))
}

// rewriteEach handles "each [list [as] [value [key]]]".
func rewriteEach(seg *Segment, rest string) (Directive, error) {
	args := splitArgs(lexer.Lex(rest))

	list, value, key := "$data", "$value", "$index"

	if len(args) > 0 {
		list, args = args[0], args[1:]
	}

	if len(args) > 0 && args[0] == "as" {
		args = args[1:]
	}

	if len(args) > 0 {
		value, args = args[0], args[1:]
	}

	if len(args) > 0 {
		key, args = args[0], args[1:]
	}

	if len(args) > 0 || !isName(value) || !isName(key) {
		return Directive{}, rewriteError(seg, "each expects: each list [as] [value [index]]")
	}

	return Directive{Code: "$each(" + list + ", function (" + value + ", " + key + ") {"}, nil
}

// cutWord splits s at its first whitespace run.
func cutWord(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}

	return s[:i], strings.TrimSpace(s[i:])
}

func isName(s string) bool {
	tokens := lexer.Lex(s)

	return len(tokens) == 1 && tokens[0].Kind == lexer.Identifier && !lexer.IsKeyword(s)
}

// isHelperCall reports whether "name rest" is a call of an imported
// function written with space separated arguments.
func isHelperCall(imports map[string]any, name, rest string) bool {
	if rest == "" || !isName(name) {
		return false
	}

	if fn, ok := imports[name]; !ok || !isFunc(fn) {
		return false
	}

	sig := lexer.Significant(lexer.Lex(rest))
	if len(sig) == 0 {
		return false
	}

	switch sig[0].Kind {
	case lexer.Identifier, lexer.Number, lexer.String, lexer.Template:
		return true
	}

	return false
}

// splitArgs groups tokens into arguments separated by top-level commas or
// whitespace. Whitespace next to a binary operator does not separate.
func splitArgs(tokens []lexer.Token) []string {
	var (
		args    []string
		cur     strings.Builder
		last    lexer.Token
		depth   int
		pending bool
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			args = append(args, s)
		}

		cur.Reset()

		last = lexer.Token{}
		pending = false
	}

	for _, t := range tokens {
		if t.Kind == lexer.Comment {
			continue
		}

		if depth == 0 {
			if t.IsPunct(",") {
				flush()

				continue
			}

			if t.Kind == lexer.Whitespace {
				if cur.Len() > 0 {
					pending = true
				}

				continue
			}
		}

		if pending {
			if isOperator(last) || isOperator(t) {
				cur.WriteByte(' ')
			} else {
				flush()
			}

			pending = false
		}

		switch {
		case t.IsPunct("("), t.IsPunct("["), t.IsPunct("{"):
			depth++
		case t.IsPunct(")"), t.IsPunct("]"), t.IsPunct("}"):
			depth = max(depth-1, 0)
		case t.Kind == lexer.Template:
			depth += templateDepth(t.Text)
		}

		cur.WriteString(t.Text)

		if t.Kind != lexer.Whitespace {
			last = t
		}
	}

	flush()

	return args
}

// templateDepth is the change in interpolation depth a template literal
// piece causes: "`a ${" opens, "} b`" closes.
func templateDepth(text string) int {
	d := 0
	if strings.HasPrefix(text, "}") {
		d--
	}

	if strings.HasSuffix(text, "${") {
		d++
	}

	return d
}

func isOperator(t lexer.Token) bool {
	if t.Kind != lexer.Punctuator {
		return false
	}

	switch t.Text {
	case "(", ")", "[", "]", "{", "}", ",", ";":
		return false
	}

	return true
}

// pipe rewrites "value | f a b | g" into "g(f(value, a, b))". The v3 form
// "f:a,b" is accepted for a filter's arguments.
func pipe(code string) (string, error) {
	parts := splitPipes(lexer.Lex(code))
	if len(parts) == 1 {
		return code, nil
	}

	value := strings.TrimSpace(lexer.Join(parts[0]))
	if value == "" {
		return "", NewError("filter pipe without a value")
	}

	for _, part := range parts[1:] {
		part = lexer.Trim(part)
		if len(part) == 0 || part[0].Kind != lexer.Identifier {
			return "", NewError("filter name expected after \"|\"")
		}

		name, rest := filterName(part)

		var args []string
		if len(rest) > 0 && rest[0].IsPunct(":") {
			args = splitCommas(rest[1:])
		} else {
			args = splitArgs(rest)
		}

		value = name + "(" + strings.Join(append([]string{value}, args...), ", ") + ")"
	}

	return value, nil
}

// filterName consumes a dotted name ("a" or "a.b.c").
func filterName(tokens []lexer.Token) (string, []lexer.Token) {
	var b strings.Builder

	i := 0
	for i < len(tokens) && tokens[i].Kind == lexer.Identifier {
		b.WriteString(tokens[i].Text)
		i++

		if i+1 < len(tokens) && tokens[i].IsPunct(".") && tokens[i+1].Kind == lexer.Identifier {
			b.WriteByte('.')
			i++

			continue
		}

		break
	}

	return b.String(), lexer.Trim(tokens[i:])
}

// splitPipes splits tokens at top-level "|" punctuators.
func splitPipes(tokens []lexer.Token) [][]lexer.Token {
	parts := [][]lexer.Token{nil}
	depth := 0

	for _, t := range tokens {
		switch {
		case t.IsPunct("("), t.IsPunct("["), t.IsPunct("{"):
			depth++
		case t.IsPunct(")"), t.IsPunct("]"), t.IsPunct("}"):
			depth = max(depth-1, 0)
		case t.Kind == lexer.Template:
			depth += templateDepth(t.Text)
		case depth == 0 && t.IsPunct("|"):
			parts = append(parts, nil)

			continue
		}

		parts[len(parts)-1] = append(parts[len(parts)-1], t)
	}

	return parts
}

func splitCommas(tokens []lexer.Token) []string {
	var (
		args  []string
		cur   []lexer.Token
		depth int
	)

	for _, t := range tokens {
		switch {
		case t.IsPunct("("), t.IsPunct("["), t.IsPunct("{"):
			depth++
		case t.IsPunct(")"), t.IsPunct("]"), t.IsPunct("}"):
			depth = max(depth-1, 0)
		case depth == 0 && t.IsPunct(","):
			if s := strings.TrimSpace(lexer.Join(cur)); s != "" {
				args = append(args, s)
			}

			cur = nil

			continue
		}

		cur = append(cur, t)
	}

	if s := strings.TrimSpace(lexer.Join(cur)); s != "" {
		args = append(args, s)
	}

	return args
}
