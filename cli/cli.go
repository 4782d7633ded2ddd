package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/artmpl/cli/cmd"
	"github.com/ardnew/artmpl/pkg"
)

// CLI is the top-level command-line interface for artmpl.
type CLI struct {
	Log      logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof    pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Template cmd.Options `embed:"" group:"template"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Render cmd.Render `cmd:"" help:"Render a template"`
	Check  cmd.Check  `cmd:"" help:"Compile templates and report diagnostics"`
	Source cmd.Source `cmd:"" help:"Print the program generated for a template"`
	Repl   cmd.Repl   `cmd:"" help:"Render template lines interactively"`
	Init   cmd.Init   `cmd:"" help:"Initialize configuration file"`
}

func templateGroup() kong.Group {
	return kong.Group{Key: "template", Title: "Template options"}
}

// Run executes the artmpl CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := newParser(&cli, configPath(baseConfig+configExt), cacheDir(),
		kong.Exit(exit),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
	)
	if err != nil {
		return err
	}

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli.Template)
}

// newParser builds the kong parser for cli. Flag defaults are read from
// the YAML configuration file at confPath and from its JSON sibling.
func newParser(
	cli *CLI,
	confPath, cache string,
	opts ...kong.Option,
) (*kong.Kong, error) {
	vars := kong.Vars{
		"version":               pkg.Version,
		cmd.ConfigIdentifier:    confPath,
		cmd.CacheIdentifier:     cache,
		cmd.ExtensionIdentifier: pkg.Extension,
		cmd.PathEnvIdentifier:   pkg.PathEnv,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	groups := append([]kong.Group{cli.Log.group(), templateGroup()}, cli.Pprof.groups()...)

	return kong.New(cli,
		append([]kong.Option{
			kong.Name(pkg.Name),
			kong.Description(pkg.Description),
			kong.UsageOnError(),
			kong.ExplicitGroups(groups),
			kong.ConfigureHelp(
				kong.HelpOptions{
					Compact:             true,
					Summary:             true,
					Tree:                true,
					NoExpandSubcommands: true,
				}),
			kong.Configuration(kong.JSON, strings.TrimSuffix(confPath, configExt)+".json"),
			kong.Configuration(resolve(cmd.ConfigNamespace), confPath),
			vars,
		}, opts...)...,
	)
}
