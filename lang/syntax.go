package lang

import (
	"strings"

	"github.com/ardnew/artmpl/lang/lexer"
)

// Output is the output mode of a directive.
type Output int

const (
	// OutputNone marks control-flow or side-effect code.
	OutputNone Output = iota
	// OutputEscaped writes the escaped value of an expression.
	OutputEscaped
	// OutputRaw writes the value of an expression unchanged.
	OutputRaw
)

func (o Output) String() string {
	switch o {
	case OutputEscaped:
		return "escaped"
	case OutputRaw:
		return "raw"
	default:
		return "none"
	}
}

// Segment is the input of a [Syntax] rewrite: one expression tag.
type Segment struct {
	Source  string         // whole tag, delimiters included
	Code    string         // tag content
	Line    int            // 1-based line of the open delimiter
	Tokens  []lexer.Token  // Code, lexed
	Imports map[string]any // read-only import table
}

// Directive is a normalized tag: statement code plus its output mode.
// Skip discards the tag entirely (comments).
type Directive struct {
	Code   string
	Output Output
	Skip   bool
}

// Syntax is a tag family: a delimiter pair and the rule that rewrites a
// tag's content into statement code.
type Syntax interface {
	Name() string
	Delims() (open, close string)
	Rewrite(seg *Segment) (Directive, error)
}

// Matcher is implemented by syntaxes that only claim some of the tags
// using their delimiters. A tag a Matcher declines is offered to the next
// syntax with the same delimiters.
type Matcher interface {
	Match(seg *Segment) bool
}

// CustomSyntax is a user-registered [Syntax]. A leading RawSigil selects
// raw output and a leading EscapeSigil selects escaped output; without a
// sigil the output is escaped when EscapeSigil is empty and none (plain
// code) otherwise. The sigil is removed before RewriteFunc, if set, gets
// the segment and the sigil's output mode.
type CustomSyntax struct {
	Label       string
	Open        string
	Close       string
	EscapeSigil string
	RawSigil    string
	MatchFunc   func(seg *Segment) bool
	RewriteFunc func(seg *Segment, out Output) (Directive, error)
}

func (c *CustomSyntax) Name() string {
	if c.Label == "" {
		return "custom"
	}

	return c.Label
}

func (c *CustomSyntax) Delims() (string, string) { return c.Open, c.Close }

func (c *CustomSyntax) Match(seg *Segment) bool {
	return c.MatchFunc == nil || c.MatchFunc(seg)
}

func (c *CustomSyntax) Rewrite(seg *Segment) (Directive, error) {
	code := strings.TrimSpace(seg.Code)

	out := OutputEscaped
	if c.EscapeSigil != "" {
		out = OutputNone
	}

	switch {
	case c.RawSigil != "" && strings.HasPrefix(code, c.RawSigil):
		out, code = OutputRaw, strings.TrimSpace(code[len(c.RawSigil):])
	case c.EscapeSigil != "" && strings.HasPrefix(code, c.EscapeSigil):
		out, code = OutputEscaped, strings.TrimSpace(code[len(c.EscapeSigil):])
	}

	if c.RewriteFunc == nil {
		return Directive{Code: code, Output: out}, nil
	}

	sub := *seg
	sub.Code = code
	sub.Tokens = lexer.Lex(code)

	return c.RewriteFunc(&sub, out)
}

// selectSyntax returns the syntax that claims seg: the token's own syntax
// unless it is a declining Matcher, in which case the next registered
// syntax with identical delimiters is tried.
func selectSyntax(list []Syntax, first Syntax, seg *Segment) Syntax {
	open, close := first.Delims()
	started := false

	for _, s := range list {
		if s == first {
			started = true
		}

		if !started {
			continue
		}

		if o, c := s.Delims(); o != open || c != close {
			continue
		}

		if m, ok := s.(Matcher); ok && !m.Match(seg) {
			continue
		}

		return s
	}

	return first
}
