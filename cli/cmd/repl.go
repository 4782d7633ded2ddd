package cmd

import (
	"context"

	"github.com/ardnew/artmpl/cli/cmd/repl"
	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
)

// Repl starts an interactive session rendering one template line at a time.
type Repl struct {
	Data []string          `help:"Data file (YAML or JSON)."              short:"d"`
	Set  map[string]string `help:"Set a data value (dotted keys allowed)." short:"s" mapsep:","`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, opts *Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	data, err := loadData(r.Data, r.Set)
	if err != nil {
		return err
	}

	l := opts.loader(ctx)

	var cache string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cache = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, repl.Config{
		Data: data,
		Compile: append(opts.compile(),
			lang.WithRoot(l.Root()),
			lang.WithInclude(l.Include),
		),
		CacheDir: cache,
		Logger:   log.Default(),
	})
}
