// Package main provides the aforeport binary entry point.
// Aforeport correlates test outcomes with the requirements (Afos) they
// verify and renders a coverage report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register adapters via init()
	_ "github.com/gematik/app-AfoReporter/adapter/cucumber"
	_ "github.com/gematik/app-AfoReporter/adapter/javasrc"
	_ "github.com/gematik/app-AfoReporter/adapter/junit"
	_ "github.com/gematik/app-AfoReporter/adapter/serenity"

	"github.com/gematik/app-AfoReporter/config"
	"github.com/gematik/app-AfoReporter/storage"
	"github.com/gematik/app-AfoReporter/watch"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "aforeport"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Requirement coverage reporter",
		Long: `Aforeport collects which tests verify which requirements (Afos),
joins them with the test results of a build and writes a coverage report.

Links come from @Afo annotations in Java sources or @Afo: tags in
Cucumber features. Results come from JUnit XML or Serenity JSON reports.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
	opts.bind(cmd)

	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Create the report once (default)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
	opts.bind(runCmd)

	watchCmd := &cobra.Command{
		Use:          "watch",
		Short:        "Re-create the report whenever sources or results change",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}
	opts.bind(watchCmd)
	watchCmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Wait this long for further changes before re-running")

	cmd.AddCommand(runCmd, watchCmd, historyCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// newLogger builds the process logger for a --log-level value.
func newLogger(logLevel string, dump bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dump {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runOnce(cmd *cobra.Command, opts *options) error {
	logger := newLogger(opts.logLevel, opts.dump)
	cfg, err := opts.load(cmd, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := NewApp(cfg, logger, opts.dump)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	_, err = app.Run(ctx)
	return err
}

func runWatch(cmd *cobra.Command, opts *options) error {
	logger := newLogger(opts.logLevel, opts.dump)
	cfg, err := opts.load(cmd, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := NewApp(cfg, logger, opts.dump)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	roots, err := app.WatchRoots()
	if err != nil {
		return err
	}
	w, err := watch.New(watch.Config{
		Roots:    roots,
		Files:    []string{cfg.Feed.Path},
		Ignore:   app.OutputFiles(),
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()

	if _, err := app.Run(ctx); err != nil {
		logger.Error("Run failed", slog.String("error", err.Error()))
	}
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		logger.Debug("Re-running", slog.Any("changed", changed))
		_, err := app.Run(ctx)
		return err
	})
}

func historyCmd() *cobra.Command {
	var (
		configPath string
		natsURL    string
		bucket     string
		limit      int
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          "history [run-id]",
		Short:        "List archived runs or show one run",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel, false)
			cfg, err := loadConfig(configPath, logger)
			if err != nil {
				return err
			}
			if natsURL != "" {
				cfg.Archive.NATSURL = natsURL
			}
			if bucket != "" {
				cfg.Archive.Bucket = bucket
			}
			if cfg.Archive.NATSURL == "" {
				return fmt.Errorf("history requires --nats-url or archive.nats_url")
			}

			store, err := storage.Connect(cmd.Context(), cfg.Archive.NATSURL, cfg.Archive.Bucket, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				id, err := storage.ParseRunID(args[0])
				if err != nil {
					return err
				}
				return showRun(cmd.Context(), cmd.OutOrStdout(), store, id)
			}
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server holding the run archive")
	cmd.Flags().StringVar(&bucket, "bucket", "", "KV bucket of the run archive")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 = all)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	loader := config.NewLoader(logger)
	if path != "" {
		return loader.LoadFile(path)
	}
	return loader.Load()
}
