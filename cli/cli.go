package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/johncclayton/rt-grammar/cli/cmd"
	"github.com/johncclayton/rt-grammar/lang"
	"github.com/johncclayton/rt-grammar/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// defaultDirMode is the permission mode for created directories.
const defaultDirMode os.FileMode = 0o700

// Output streams used by the commands.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// CLI is the top-level command-line interface for rtgrammar.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Pprof   pprofConfig   `embed:"" group:"pprof"   prefix:"pprof-"`
	Grammar grammarConfig `embed:"" group:"grammar" prefix:"grammar-"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Check  cmd.Check   `cmd:"" default:"withargs" help:"Validate script files (default)."`
	Tokens cmd.Tokens  `cmd:""                    help:"Print the tokens of a script."`
	AST    cmd.AST     `cmd:"" name:"ast"         help:"Print the syntax tree of a script."`
	Dump   cmd.Grammar `cmd:"" name:"grammar"     help:"Print the effective grammar description."`
	Watch  cmd.Watch   `cmd:""                    help:"Validate script files again whenever they change."`
	Init   cmd.Init    `cmd:""                    help:"Write the current flag values as the configuration file."`
}

// Run executes the rtgrammar CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion:
// 1 when a script fails validation or a requirement does not hold.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	err := run(ctx, exit, args)
	if errors.Is(err, cmd.ErrValidation) {
		exit(1)

		return nil
	}

	return err
}

// run parses args and runs the selected command. Deferred cleanup, such as
// writing profiles, completes before Run acts on the result.
func run(ctx context.Context, exit func(code int), args []string) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Name + " " + pkg.Version(),
		"scriptExt":          pkg.ScriptExt,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Grammar.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that messages emitted while parsing
	// already use the requested level and format.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Grammar.group()},
		),
		kong.DefaultEnvars(strings.TrimSuffix(pkg.EnvPrefix(), "_")),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.BindSingletonProvider(func() (*cmd.Loaded, error) {
			return cli.Grammar.load(ctx)
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
		kong.Configuration(resolveYAML, configFilePath),
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

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}

// configPath joins the configuration directory with elem.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
