package lang

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Renderer is a compiled template. It is immutable and safe for
// concurrent use.
type Renderer struct {
	opts    Options
	nodes   []node
	scope   []ScopeEntry
	source  string
	script  string
	failure *Diagnostic
}

// Render executes the template with data.
func (r *Renderer) Render(data any) (string, error) {
	return r.RenderContext(context.Background(), data)
}

// RenderContext executes the template with data, stopping when ctx ends.
// Cancellation is returned as is, regardless of Bail.
func (r *Renderer) RenderContext(ctx context.Context, data any) (string, error) {
	if r.failure != nil {
		return r.bail(r.failure)
	}

	f := &frame{ctx: ctx, escape: r.opts.Escape}
	f.env = r.env(f, data)

	for _, n := range r.nodes {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := n.exec(f); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return "", err
			}

			d := NewDiagnostic(RuntimeError, r.opts.Filename, f.line, f.source, err)
			d.Script = r.script

			return r.bail(d)
		}
	}

	return f.out.String(), nil
}

func (r *Renderer) bail(d *Diagnostic) (string, error) {
	if r.opts.Bail {
		return "", d
	}

	r.opts.Logger.Error("template failed", slog.Any("error", d))

	return ErrorSentinel, nil
}

// Err returns the compile failure held by a Renderer built with Bail off,
// or nil.
func (r *Renderer) Err() error {
	if r.failure == nil {
		return nil
	}

	return r.failure
}

// Filename returns the template's filename option.
func (r *Renderer) Filename() string { return r.opts.Filename }

// Source returns a listing of the generated program.
func (r *Renderer) Source() string {
	if r.failure != nil {
		return r.failure.Script
	}

	return r.script
}

// Names returns the template's free names and their bindings.
func (r *Renderer) Names() []ScopeEntry {
	return append([]ScopeEntry(nil), r.scope...)
}

func (r *Renderer) env(f *frame, data any) map[string]any {
	env := make(map[string]any, len(r.scope)+2)
	env[dataName] = data
	env[importsName] = r.opts.Imports

	for _, e := range r.scope {
		switch e.Kind {
		case BindBuiltin:
			env[e.Name] = r.builtin(f, e.Name, data)
		case BindImport:
			env[e.Name] = e.Value
		default:
			env[e.Name], _ = field(data, e.Name)
		}
	}

	return env
}

func (r *Renderer) builtin(f *frame, name string, data any) any {
	switch name {
	case "print":
		return func(args ...any) string {
			var b strings.Builder
			for _, a := range args {
				b.WriteString(stringify(a))
			}

			f.out.WriteString(b.String())

			return b.String()
		}

	case "include":
		return func(path string, args ...any) (string, error) {
			text, err := r.include(path, data, args)
			if err != nil {
				return "", err
			}

			f.out.WriteString(text)

			return text, nil
		}

	case "$include":
		return func(path string, args ...any) (string, error) {
			return r.include(path, data, args)
		}
	}

	return nil
}

func (r *Renderer) include(path string, data any, args []any) (string, error) {
	if r.opts.Include == nil {
		return "", ErrNoInclude.With(slog.String("path", path))
	}

	if len(args) > 0 && args[0] != nil {
		data = args[0]
	}

	return r.opts.Include(path, data, r.opts.Filename)
}
