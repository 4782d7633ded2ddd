package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
)

// Render renders a template with data.
type Render struct {
	Name   string            `arg:"" help:"Template name, file, or '-' for stdin."   name:"template"`
	Data   []string          `       help:"Data file (YAML or JSON) or '-' for stdin." short:"d"`
	Set    map[string]string `       help:"Set a data value (dotted keys allowed)."   short:"s" mapsep:","`
	Output string            `       help:"Write output atomically to this file."     short:"o" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	data, err := loadData(r.Data, r.Set)
	if err != nil {
		return err
	}

	out, err := render(ctx, opts, r.Name, data)
	if err != nil {
		return err
	}

	if r.Output == "" {
		_, err = io.WriteString(stdout(ctx), out)

		return err
	}

	err = atomic.WriteFile(r.Output, strings.NewReader(out))
	if err != nil {
		return ErrWriteOutput.With(slog.String("file", r.Output)).Wrap(err)
	}

	log.DebugContext(ctx, "rendered template",
		slog.String("template", r.Name),
		slog.String("output", r.Output),
		slog.Int("bytes", len(out)),
	)

	return nil
}

// render renders the named template, or standard input for "-", with a
// loader configured from opts.
func render(ctx context.Context, opts *Options, name string, data any) (string, error) {
	l := opts.loader(ctx)

	if name == stdinSource {
		src, err := readSource(stdinSource)
		if err != nil {
			return "", ErrReadSource.Wrap(err)
		}

		tmpl, err := lang.Compile(string(src), append(opts.compile(),
			lang.WithRoot(l.Root()),
			lang.WithInclude(l.Include),
		)...)
		if err != nil {
			return "", err
		}

		return tmpl.RenderContext(ctx, data)
	}

	path, err := l.Resolve(name, "")
	if err != nil {
		return "", err
	}

	tmpl, err := l.Load(path)
	if err != nil {
		return "", err
	}

	return tmpl.RenderContext(ctx, data)
}
