package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/loader"
	"github.com/ardnew/artmpl/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer kong was configured with, or os.Stdout.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource names standard input wherever a file is expected.
const stdinSource = "-"

// Options holds the template flags shared by every command.
type Options struct {
	Root      string   `default:"."              help:"Template root directory."                          short:"r" type:"path"`
	Path      []string `                         help:"Additional template search directories (also ${pathEnv})." type:"path"`
	Extension string   `default:"${extension}"   help:"Extension added to template names without one."`
	Preset    string   `default:"all"            enum:"all,native,brace"                                  help:"Built-in syntaxes to recognize."`
	Open      string   `default:"<%"             help:"Native syntax open delimiter."`
	Close     string   `default:"%>"             help:"Native syntax close delimiter."`
	Escape    bool     `default:"true"           help:"HTML-escape output statements."                    negatable:""`
	Compress  bool     `default:"false"          help:"Collapse whitespace and strip HTML comments."`
	Debug     bool     `default:"true"           help:"Track template lines for runtime errors."           negatable:""`
	Bail      bool     `default:"true"           help:"Report failures instead of rendering the error sentinel." negatable:""`
}

// compile returns the compilation options selected by o.
func (o *Options) compile() []lang.Option {
	preset, _ := lang.ParsePreset(o.Preset)

	opts := []lang.Option{
		lang.WithPreset(preset),
		lang.WithDelims(o.Open, o.Close),
		lang.WithDebug(o.Debug),
		lang.WithBail(o.Bail),
		lang.WithLogger(log.Default()),
	}

	if !o.Escape {
		opts = append(opts, lang.WithoutEscape())
	}

	if o.Compress {
		opts = append(opts, lang.WithCompress(lang.CompressHTML))
	}

	return opts
}

// loader returns a template loader for o. The extra options are applied
// after the flag-derived ones.
func (o *Options) loader(ctx context.Context, extra ...lang.Option) *loader.Loader {
	env := ""
	if ktx := kongContextFrom(ctx); ktx != nil {
		env = ktx.Model.Vars()[PathEnvIdentifier]
	}

	return loader.New(
		loader.WithRoot(o.Root),
		loader.WithSearchPath(loader.SearchPath(env, o.Path...)...),
		loader.WithExtension(o.Extension),
		loader.WithCompileOptions(append(o.compile(), extra...)...),
		loader.WithLogger(log.Default()),
	)
}

// readSource returns the contents of the file at path, or of standard
// input when path is "-".
func readSource(path string) ([]byte, error) {
	if path == stdinSource {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(path)
}
