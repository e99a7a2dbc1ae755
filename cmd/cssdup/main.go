package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/asynkron/cssdup/internal/config"
)

const appName = "cssdup"

// set with -ldflags "-X main.version=..."
var version = "dev"

// prepareEnv loads configuration (explicit or discovered in root) and sets up logging.
func prepareEnv(ctx context.Context, cmd *cli.Command, root string) (context.Context, error) {
	env := envFromContext(ctx)

	cfg, path, err := config.Load(root, cmd.String("config"))
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		cfg.Logging.ConsoleLogger.Level = "debug"
	}
	env.Cfg, env.ConfigPath = &cfg, path

	if env.Log, err = cfg.Logging.Prepare(appName); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version), zap.String("runtime", runtime.Version()))
	if path == "" {
		env.Log.Debug("Using defaults (no configuration file)")
	} else {
		env.Log.Debug("Configuration loaded", zap.String("file", path))
	}
	return ctx, nil
}

// syncing a console logger fails on terminals and pipes, that is not worth reporting
func isSyncOnConsole(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}

func prepareScan(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	root := cmd.Args().Get(0)
	if root == "" {
		root = "."
	}
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	return prepareEnv(ctx, cmd, root)
}

func prepareDump(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	return prepareEnv(ctx, cmd, ".")
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	if er := env.Log.Sync(); er != nil && !isSyncOnConsole(er) {
		err = multierr.Append(err, fmt.Errorf("unable to flush logs: %w", er))
	}
	return
}

// errors from the subcommand are logged once here; main falls back to stderr otherwise
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "finds duplicated and near-duplicated CSS rule blocks and proposes shared classes",
		Version:         version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML or TOML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug details to the console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "scan",
				Usage:        "Scans stylesheets under PATH and writes the refactor plan",
				Before:       prepareScan,
				Action:       runScan,
				OnUsageError: usageErrorHandler,
				ArgsUsage:    "[PATH]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "ext", Usage: "file `EXTENSION` to scan, repeatable (default from configuration: .css)"},
					&cli.StringFlag{Name: "exclude", Usage: "exclude files matching `PATTERNS` (comma-separated, e.g. '*.min.css,vendor-*')"},
					&cli.FloatFlag{Name: "threshold", Value: -1, DefaultText: "0.9", Usage: "near-duplicate similarity `RATIO` (0.0-1.0)"},
					&cli.BoolFlag{Name: "no-near", Usage: "skip the pairwise near-duplicate scan"},
					&cli.StringFlag{Name: "out", Usage: "output `DIR` for reports (default from configuration: .cssdup)"},
					&cli.IntFlag{Name: "top", Value: 10, Usage: "show top `N` duplicate groups on the console"},
					&cli.BoolFlag{Name: "detailed", Usage: "render the markdown report in the terminal"},
					&cli.BoolFlag{Name: "github-annotations", Usage: "output GitHub Actions annotations for inline PR comments"},
					&cli.StringFlag{Name: "github-level", Value: "warning", Usage: "GitHub annotation `LEVEL`: notice, warning, or error"},
					&cli.StringFlag{Name: "git-diff", Usage: "only annotate files changed vs this git `REF` (e.g., origin/main)"},
					&cli.StringFlag{Name: "charset", Usage: "decode stylesheets from `ENCODING` instead of UTF-8 (see IANA.org for character set names)"},
					&cli.BoolFlag{Name: "check-syntax", Usage: "cross-check each file with a CSS grammar and warn about mis-segmented rules"},
				},
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps either default or actual configuration (YAML)",
				Before:       prepareDump,
				Action:       outputConfiguration,
				OnUsageError: usageErrorHandler,
				ArgsUsage:    "[DESTINATION]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default configuration"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit skips deferred calls, keep this the only defer in main
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	cfg, state := *env.Cfg, "actual"
	if cmd.Bool("default") {
		cfg, state = config.Defaults(), "default"
	}
	data, err := config.Dump(cfg)
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", state, err)
	}

	fname := cmd.Args().Get(0)
	if fname == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	out, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write %s configuration: %w", state, err)
	}
	env.Log.Info("Configuration written", zap.String("state", state), zap.String("file", fname))
	return nil
}
