package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sentinel errors. Compare with [errors.Is]; the values returned by this
// package wrap them with context.
var (
	ErrUnterminated  = NewError("unterminated expression tag")
	ErrUnbalanced    = NewError("unbalanced block")
	ErrSyntax        = NewError("invalid statement")
	ErrExprCompile   = NewError("expression compilation failed")
	ErrExprEvaluate  = NewError("expression evaluation failed")
	ErrCompilerState = NewError("compiler is not accepting input")
	ErrNoInclude     = NewError("include is not configured")
	ErrRewrite       = NewError("directive rewrite failed")
)

// Error is an error with structured logging attributes.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns an Error with the given message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is matches any Error derived from the same sentinel through [Error.Wrap]
// or [Error.With].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg && t.err == nil && len(t.attrs) == 0
}

func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e that wraps err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged}
}

// DiagnosticKind distinguishes translation failures from evaluation
// failures.
type DiagnosticKind int

const (
	CompileError DiagnosticKind = iota
	RuntimeError
)

func (k DiagnosticKind) String() string {
	if k == RuntimeError {
		return "RuntimeError"
	}

	return "CompileError"
}

func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DiagnosticKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "CompileError":
		*k = CompileError
	case "RuntimeError":
		*k = RuntimeError
	default:
		return fmt.Errorf("unknown diagnostic kind %q", text)
	}

	return nil
}

// Diagnostic describes a template failure: where it happened (Path, Line,
// Source) and why (Message, Stack). Script holds the generated program
// listing when available. A Diagnostic is never modified after it is
// returned.
type Diagnostic struct {
	Path    string         `json:"path"             yaml:"path"`
	Kind    DiagnosticKind `json:"name"             yaml:"name"`
	Message string         `json:"message"          yaml:"message"`
	Line    int            `json:"line"             yaml:"line"`
	Source  string         `json:"source"           yaml:"source"`
	Stack   string         `json:"stack,omitempty"  yaml:"stack,omitempty"`
	Script  string         `json:"script,omitempty" yaml:"script,omitempty"`

	err error
}

func (d *Diagnostic) Error() string {
	path := d.Path
	if path == "" {
		path = "<template>"
	}

	return fmt.Sprintf("%s %s:%d: %s", d.Kind, path, d.Line, d.Message)
}

func (d *Diagnostic) Unwrap() error { return d.err }

func (d *Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", d.Kind.String()),
		slog.String("path", d.Path),
		slog.Int("line", d.Line),
		slog.String("source", d.Source),
		slog.String("message", d.Message),
	}

	if d.Stack != "" && d.Stack != d.Message {
		attrs = append(attrs, slog.String("stack", d.Stack))
	}

	return slog.GroupValue(attrs...)
}

// AsDiagnostic reports whether err is or wraps a *Diagnostic.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	ok := errors.As(err, &d)

	return d, ok
}

// NewDiagnostic returns a Diagnostic for cause. Message is the first line
// of the cause's text and Stack is all of it.
func NewDiagnostic(kind DiagnosticKind, path string, line int, source string, cause error) *Diagnostic {
	text := cause.Error()
	msg, _, _ := strings.Cut(text, "\n")

	return &Diagnostic{
		Path:    path,
		Kind:    kind,
		Message: strings.TrimSpace(msg),
		Line:    line,
		Source:  source,
		Stack:   text,
		err:     cause,
	}
}
