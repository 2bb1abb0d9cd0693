package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nestex/cli/cmd"
	"github.com/ardnew/nestex/pkg"
)

// CLI is the top-level command-line interface for nestex.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Props   []string         `help:"Property file(s) or '-' for stdin" name:"props" short:"p" type:"existingfile"`
	Marker  string           `default:"${marker}" help:"Expression marker character" short:"m"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Init  cmd.Init  `cmd:"" help:"Initialize configuration file"`
	Parse cmd.Parse `cmd:"" help:"Print the parse tree of a template"`
	Check cmd.Check `cmd:"" help:"Report whether each argument begins with an expression marker"`
	Repl  cmd.Repl  `cmd:"" help:"Evaluate templates interactively"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate a template"`
}

// Run executes the nestex CLI with the given context and arguments.
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

	vars := kong.Vars{
		"version":            pkg.Version,
		"marker":             string(cmd.DefaultMarker),
		cmd.ConfigIdentifier: configPath(baseConfig + ".yaml"),
		cmd.CacheIdentifier:  cacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that errors reported while parsing the
	// remaining flags already use the requested log configuration.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx), configPath(baseConfig+".yaml")),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithPropertyFiles(ctx, cli.Props)

	ctx, err = cmd.WithMarker(ctx, cli.Marker)
	if err != nil {
		return err
	}

	// Apply TimeLayout and Caller, which are not configured while parsing.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
