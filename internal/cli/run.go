// Package cli implements the limg command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/coreos/pkg/capnslog"
	flag "github.com/spf13/pflag"

	"github.com/arloliu/limg/internal/config"
)

var plog = capnslog.NewPackageLogger("github.com/arloliu/limg", "cli")

var errUsage = errors.New("usage error")

// Env carries the process environment the command depends on.
type Env struct {
	In      io.Reader
	Out     io.Writer
	ErrOut  io.Writer
	WorkDir string
	Environ []string
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env Env, cfg config.Config, args []string) error
}

func commands() []command {
	return []command{
		{name: "pack", summary: "build a container from frame files", run: cmdPack},
		{name: "append", summary: "append frame files to a container", run: cmdAppend},
		{name: "info", summary: "show container layout and duplicate frames", run: cmdInfo},
		{name: "extract", summary: "write one frame to a file", run: cmdExtract},
		{name: "play", summary: "step through a container interactively", run: cmdPlay},
		{name: "config", summary: "print the resolved configuration", run: nil},
	}
}

// Run executes the command line args (without the program name) and
// returns the process exit code.
func Run(ctx context.Context, env Env, args []string) int {
	globals := flag.NewFlagSet("limg", flag.ContinueOnError)
	globals.SetOutput(io.Discard)
	globals.SetInterspersed(false)

	configPath := globals.StringP("config", "c", "", "config file (JSONC)")
	logLevel := globals.String("log-level", "", "log level: error, warning, info, debug")
	help := globals.BoolP("help", "h", false, "show help")

	if err := globals.Parse(args); err != nil {
		fmt.Fprintln(env.ErrOut, "error:", err)
		printUsage(env.ErrOut)

		return 2
	}

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(env.Out)

		return 0
	}

	var overrides config.Overrides
	if globals.Changed("log-level") {
		overrides.LogLevel = logLevel
	}

	cfg, sources, err := config.Load(env.WorkDir, *configPath, overrides, env.Environ)
	if err != nil {
		fmt.Fprintln(env.ErrOut, "error:", err)

		return 1
	}

	setupLogging(env.ErrOut, cfg)

	name, cmdArgs := rest[0], rest[1:]

	if name == "config" {
		return exitCode(env, printConfig(env.Out, cfg, sources))
	}

	for _, c := range commands() {
		if c.name == name {
			plog.Debugf("running %s %v", name, cmdArgs)

			return exitCode(env, c.run(ctx, env, cfg, cmdArgs))
		}
	}

	fmt.Fprintln(env.ErrOut, "error: unknown command:", name)
	printUsage(env.ErrOut)

	return 2
}

func exitCode(env Env, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(env.ErrOut, "error:", err)

		return 2
	default:
		fmt.Fprintln(env.ErrOut, "error:", err)

		return 1
	}
}

func setupLogging(w io.Writer, cfg config.Config) {
	level, err := cfg.Level()
	if err != nil {
		level = capnslog.WARNING
	}

	capnslog.SetFormatter(capnslog.NewPrettyFormatter(w, level >= capnslog.DEBUG))
	capnslog.SetGlobalLogLevel(level)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: limg [--config FILE] [--log-level LEVEL] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	for _, c := range commands() {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'limg <command> --help' for command options.")
}

func printConfig(w io.Writer, cfg config.Config, sources config.Sources) error {
	out, err := config.Format(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, out)

	if sources.Global != "" {
		fmt.Fprintln(w, "# global:", sources.Global)
	}
	if sources.Project != "" {
		fmt.Fprintln(w, "# project:", sources.Project)
	}

	return nil
}

// newFlagSet creates a subcommand flag set that reports --help as
// flag.ErrHelp after printing usage to env.Out.
func newFlagSet(env Env, name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Out)
	fs.Usage = func() {
		fmt.Fprintf(env.Out, "Usage: limg %s %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}

	return fs
}

// parseFlags parses args and turns --help into a clean exit.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}

		return false, fmt.Errorf("%w: %w", errUsage, err)
	}

	return true, nil
}

func readFrames(paths []string) ([][]byte, error) {
	frames := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint: gosec
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		frames = append(frames, data)
	}

	return frames, nil
}
