package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/LJTian/CompetitorTracker/internal/collector"
	"github.com/LJTian/CompetitorTracker/internal/config"
	"github.com/LJTian/CompetitorTracker/internal/report"
	"github.com/LJTian/CompetitorTracker/internal/scheduler"
	"github.com/LJTian/CompetitorTracker/internal/storage"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	outputDir  string
	logLevel   string
	stdout     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "collect",
		Short:         "Scrape competitor blogs once and write a dated digest",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			err := run(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config (default $TRACKER_CONFIG or config.yaml)")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for dated reports (overrides config)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	f.BoolVar(&opts.stdout, "stdout", false, "print the digest to stdout instead of writing a file")
	return cmd
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger := newLogger(stderr, cfg.LogLevel)
	if errors.Is(err, config.ErrConfigNotFound) {
		logger.Warn("config file not found, using default settings", "path", opts.configPath)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	runner := scheduler.NewRunner(
		collector.NewHTTPFetcher(cfg.UserAgent, logger),
		collector.NewBrowserFetcher(cfg.UserAgent, logger),
		collector.NewExtractor(cfg.MaxArticles, logger),
		cfg.Policy,
		logger,
	)
	s, err := scheduler.New(cfg.Sources, runner, cfg.SourceDelay, scheduler.WithLogger(logger))
	if err != nil {
		return err
	}

	digest := s.RunOnce(ctx)

	content, err := report.NewMarkdown(cfg.SummaryMaxLength).Render(digest)
	if err != nil {
		return err
	}

	if opts.stdout {
		_, err := stdout.Write(content)
		return err
	}

	path, err := storage.NewStore(cfg.OutputDir).Save(digest.Date(), content)
	if err != nil {
		return err
	}
	logger.Info("report saved", "path", path, "articles", digest.Summary.Articles)
	return nil
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "collect",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else if level != "" {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}
