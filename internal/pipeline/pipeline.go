// Package pipeline runs the fetcher and extractor stages over a bounded queue.
//
// The fetcher (producer) walks the URL list in order, fetches each page and
// offers a FetchRecord to the queue, then enqueues crawler.EndOfInput exactly
// once. The extractor (consumer) blocks on the queue, turns each record into a
// HyperlinkRecord, and stops when it dequeues the sentinel. The two stages share
// nothing but the queue; the result slice is handed to the caller only after
// both goroutines have returned.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/linkextractor/internal/crawler"
	"github.com/JakeFAU/linkextractor/internal/metrics"
)

// Options tunes stage behavior.
type Options struct {
	Policy   crawler.DeliveryPolicy
	Progress crawler.Progress
}

// Stats summarizes one run.
type Stats struct {
	URLs      int
	Fetched   int
	Failed    int
	Dropped   int
	Extracted int
}

// Result is returned by Run once both stages have finished.
type Result struct {
	Records []crawler.HyperlinkRecord
	Stats   Stats
}

// Pipeline wires a fetcher to the link extractor through a bounded queue.
type Pipeline struct {
	queue    crawler.Queue
	fetcher  crawler.Fetcher
	policy   crawler.DeliveryPolicy
	progress crawler.Progress
	logger   *zap.Logger
}

type lener interface {
	Len() int
}

// New creates a Pipeline.
func New(queue crawler.Queue, fetcher crawler.Fetcher, opts Options, logger *zap.Logger) *Pipeline {
	if opts.Policy == "" {
		opts.Policy = crawler.DeliveryBestEffort
	}
	if opts.Progress == nil {
		opts.Progress = noopProgress{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		queue:    queue,
		fetcher:  fetcher,
		policy:   opts.Policy,
		progress: opts.Progress,
		logger:   logger,
	}
}

// Run starts both stages and blocks until the extractor has consumed the sentinel.
func (p *Pipeline) Run(ctx context.Context, urls []string) (Result, error) {
	var (
		stats   Stats
		records []crawler.HyperlinkRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := p.Produce(gctx, urls)
		stats = s
		return err
	})
	g.Go(func() error {
		r, err := p.Consume(gctx)
		records = r
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.ObserveRun("failed")
		return Result{}, fmt.Errorf("pipeline run: %w", err)
	}

	stats.Extracted = len(records)
	metrics.ObserveRun("succeeded")
	p.logger.Info("pipeline finished",
		zap.Int("urls", stats.URLs),
		zap.Int("fetched", stats.Fetched),
		zap.Int("failed", stats.Failed),
		zap.Int("dropped", stats.Dropped),
		zap.Int("extracted", stats.Extracted),
	)
	return Result{Records: records, Stats: stats}, nil
}

func (p *Pipeline) reportDepth() {
	if l, ok := p.queue.(lener); ok {
		metrics.SetQueueDepth(l.Len())
	}
}

type noopProgress struct{}

func (noopProgress) Advance() {}
func (noopProgress) Finish()  {}
