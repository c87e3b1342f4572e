// Package cmd defines the linkextractor command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkextractor/internal/api"
	"github.com/JakeFAU/linkextractor/internal/app"
	"github.com/JakeFAU/linkextractor/internal/config"
	"github.com/JakeFAU/linkextractor/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// runners lets tests replace the pipeline and the test-suite invocations.
type runners struct {
	pipeline func(ctx context.Context, cfgFile string, stderr io.Writer) error
	tests    func(ctx context.Context, stdout, stderr io.Writer) error
}

func defaultRunners() runners {
	return runners{pipeline: runPipeline, tests: runTests}
}

func newRootCmd(r runners) *cobra.Command {
	var (
		cfgFile  string
		unitTest bool
	)
	cmd := &cobra.Command{
		Use:   "linkextractor",
		Short: "Fetch a list of pages and extract their hyperlinks.",
		Long: `linkextractor reads one URL per line from the input file, fetches each page,
extracts the href of every anchor, and writes the results as a JSON array.
Pages that could not be fetched are reported in the fetch log.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if unitTest {
				return r.tests(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			return r.pipeline(cmd.Context(), cfgFile, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (YAML, optional)")
	cmd.Flags().BoolVar(&unitTest, "unittest", false, "run the package test suite instead of the pipeline")
	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(defaultRunners()).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runPipeline(ctx context.Context, cfgFile string, stderr io.Writer) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logging.Sync(logger)

	if cfg.Metrics.Addr != "" {
		srv := api.NewServer(logger)
		if _, err := srv.Start(cfg.Metrics.Addr); err != nil {
			logger.Error("metrics server failed to start", zap.Error(err))
			return err
		}
		srv.SetReady(true)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	if _, err := app.Run(ctx, app.FromConfig(cfg, stderr), logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted")
		} else {
			logger.Error("run failed", zap.Error(err))
		}
		return err
	}
	return nil
}

func runTests(ctx context.Context, stdout, stderr io.Writer) error {
	// #nosec G204 -- fixed arguments.
	c := exec.CommandContext(ctx, "go", "test", "./...")
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	return nil
}
