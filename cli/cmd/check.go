package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
)

// Check compiles templates and reports their diagnostics.
type Check struct {
	Names  []string `arg:"" help:"Template names or files."  name:"template"`
	Format string   `       help:"Diagnostic output format."     default:"text" enum:"text,json,yaml" short:"f"`
	Indent int      `       help:"Indent width for JSON and YAML." default:"2"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	l := opts.loader(ctx, lang.WithBail(true))
	w := stdout(ctx)
	failed := 0

	for _, name := range c.Names {
		path, err := l.Resolve(name, "")
		if err == nil {
			_, err = l.Load(path)
		}

		if err == nil {
			log.DebugContext(ctx, "template ok", slog.String("path", path))

			continue
		}

		d, ok := lang.AsDiagnostic(err)
		if !ok {
			return err
		}

		failed++

		if err := c.report(ctx, w, d); err != nil {
			return err
		}
	}

	if failed > 0 {
		return ErrCheck.With(
			slog.Int("failed", failed),
			slog.Int("checked", len(c.Names)),
		)
	}

	return nil
}

func (c *Check) report(ctx context.Context, w io.Writer, d *lang.Diagnostic) error {
	switch c.Format {
	case "json":
		return d.WriteJSON(ctx, w, c.Indent)
	case "yaml":
		if _, err := fmt.Fprintln(w, "---"); err != nil {
			return err
		}

		return d.WriteYAML(ctx, w, c.Indent)
	default:
		var source string
		if b, err := os.ReadFile(d.Path); err == nil {
			source = string(b)
		}

		return d.WriteText(ctx, w, source)
	}
}
