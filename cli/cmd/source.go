package cmd

import (
	"context"
	"io"

	"github.com/ardnew/artmpl/lang"
)

// Source prints the program listing generated for a template.
type Source struct {
	Name string `arg:"" help:"Template name or file." name:"template"`
}

// Run executes the source command.
func (s *Source) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	l := opts.loader(ctx, lang.WithBail(true))

	path, err := l.Resolve(s.Name, "")
	if err != nil {
		return err
	}

	tmpl, err := l.Load(path)
	if err != nil {
		return err
	}

	_, err = io.WriteString(stdout(ctx), tmpl.Source()+"\n")

	return err
}
