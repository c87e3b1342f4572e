// Package app wires the link extraction run: it reads the URL list, builds the
// fetcher, queue and pipeline, and writes the result artifact.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/linkextractor/internal/config"
	"github.com/JakeFAU/linkextractor/internal/crawler"
	collyfetcher "github.com/JakeFAU/linkextractor/internal/fetcher/colly"
	"github.com/JakeFAU/linkextractor/internal/id/uuid"
	"github.com/JakeFAU/linkextractor/internal/logging"
	"github.com/JakeFAU/linkextractor/internal/pipeline"
	"github.com/JakeFAU/linkextractor/internal/progress"
	"github.com/JakeFAU/linkextractor/internal/queue/memory"
	"github.com/JakeFAU/linkextractor/internal/storage/local"
)

// Settings is the explicit value a run is constructed with.
type Settings struct {
	InputPath     string
	LogPath       string
	OutputPath    string
	QueueCapacity int
	Policy        crawler.DeliveryPolicy
	UserAgent     string
	Timeout       time.Duration
	MaxBodyBytes  int
	// ProgressOut receives the progress bar; nil disables it.
	ProgressOut io.Writer
	// IDs generates the run ID; UUIDv7 when nil.
	IDs crawler.IDGenerator
}

// FromConfig projects the loaded configuration onto Settings.
// progressOut is only used when progress.enabled is set.
func FromConfig(cfg config.Config, progressOut io.Writer) Settings {
	s := Settings{
		InputPath:     cfg.Files.Input,
		LogPath:       cfg.Files.FetchLog,
		OutputPath:    cfg.Files.Output,
		QueueCapacity: cfg.Queue.Capacity,
		Policy:        cfg.DeliveryPolicy(),
		UserAgent:     cfg.HTTP.UserAgent,
		Timeout:       cfg.RequestTimeout(),
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
	}
	if cfg.Progress.Enabled {
		s.ProgressOut = progressOut
	}
	return s
}

// Run executes one full pass over the URL list and writes the output file.
// A missing input file aborts before anything else is touched.
func Run(ctx context.Context, s Settings, logger *zap.Logger) (pipeline.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.IDs == nil {
		s.IDs = uuid.New()
	}
	runID, err := s.IDs.NewID()
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))

	urls, err := local.ReadURLs(s.InputPath)
	if err != nil {
		return pipeline.Result{}, err
	}
	logger.Info("loaded url list", zap.String("path", s.InputPath), zap.Int("count", len(urls)))

	fetchLog, err := logging.NewFetchLog(s.LogPath, logger)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer func() {
		if cerr := fetchLog.Close(); cerr != nil {
			logger.Warn("failed to close fetch log", zap.Error(cerr))
		}
	}()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    s.UserAgent,
		Timeout:      s.Timeout,
		MaxBodyBytes: s.MaxBodyBytes,
	}, fetchLog, logger)

	q := memory.NewQueue(s.QueueCapacity)
	defer q.Close()

	opts := pipeline.Options{Policy: s.Policy}
	if s.ProgressOut != nil {
		opts.Progress = progress.NewBar(len(urls), s.ProgressOut)
	}

	res, err := pipeline.New(q, fetcher, opts, logger).Run(ctx, urls)
	if err != nil {
		return pipeline.Result{}, err
	}

	if err := local.WriteResults(s.OutputPath, res.Records); err != nil {
		return pipeline.Result{}, err
	}
	logger.Info("wrote results", zap.String("path", s.OutputPath), zap.Int("records", len(res.Records)))
	return res, nil
}
