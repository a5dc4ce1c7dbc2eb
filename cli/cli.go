package cli

import (
	"context"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/lunar/cli/cmd"
	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/pkg"
)

// CLI is the top-level command-line interface for lunar.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Run    cmd.Run    `cmd:"" default:"withargs" help:"Run scripts"`
	Repl   cmd.Repl   `cmd:""                    help:"Start an interactive session"`
	AST    cmd.AST    `cmd:"" name:"ast"         help:"Print the syntax tree of a script"`
	Tokens cmd.Tokens `cmd:""                    help:"Print the tokens of a script"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the lunar CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig + ".lua")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"version":            pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	// Parse command line
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
		kong.Configuration(kong.JSON, pkg.ConfigPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)

	// The time layout is only applied here.
	cli.Log.start(ctx)

	// No-op unless a profile mode was selected.
	defer cli.Pprof.start(ctx)()

	// Execute the selected command
	return ktx.Run(ctx, &cli)
}
