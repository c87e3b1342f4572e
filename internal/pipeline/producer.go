package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/linkextractor/internal/crawler"
	"github.com/JakeFAU/linkextractor/internal/metrics"
)

// Produce is the fetcher stage. It fetches urls in order, offers each parsed
// page to the queue, and finally enqueues the end-of-input sentinel, waiting
// for space if needed. Fetch failures are not errors; only a canceled context is.
func (p *Pipeline) Produce(ctx context.Context, urls []string) (Stats, error) {
	defer p.progress.Finish()

	stats := Stats{URLs: len(urls)}
	for _, url := range urls {
		res := p.fetcher.Fetch(ctx, url)
		p.progress.Advance()
		if !res.OK() {
			stats.Failed++
			continue
		}
		stats.Fetched++

		item := crawler.QueueItem{Record: crawler.FetchRecord{URL: url, Document: res.Document}}
		delivered, err := p.offer(ctx, item)
		if err != nil {
			return stats, err
		}
		if !delivered {
			stats.Dropped++
			metrics.ObserveDrop()
			p.logger.Warn("queue full, dropping fetched page", zap.String("url", url))
			continue
		}
		p.reportDepth()
		p.logger.Debug("producing", zap.String("url", url))
	}

	if err := p.queue.Enqueue(ctx, crawler.EndOfInput); err != nil {
		return stats, fmt.Errorf("enqueue end of input: %w", err)
	}
	return stats, nil
}

func (p *Pipeline) offer(ctx context.Context, item crawler.QueueItem) (bool, error) {
	if p.policy == crawler.DeliveryBlocking {
		if err := p.queue.Enqueue(ctx, item); err != nil {
			return false, fmt.Errorf("enqueue %s: %w", item.Record.URL, err)
		}
		return true, nil
	}
	return p.queue.TryEnqueue(item), nil
}
