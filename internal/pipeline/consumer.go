package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/linkextractor/internal/crawler"
	"github.com/JakeFAU/linkextractor/internal/links"
	"github.com/JakeFAU/linkextractor/internal/metrics"
)

// Consume is the extractor stage. It blocks on the queue, extracts hyperlinks
// from every record, and returns once it dequeues the end-of-input sentinel.
// The returned slice is never nil.
func (p *Pipeline) Consume(ctx context.Context) ([]crawler.HyperlinkRecord, error) {
	records := []crawler.HyperlinkRecord{}
	for {
		item, err := p.queue.Dequeue(ctx)
		if err != nil {
			return records, fmt.Errorf("dequeue: %w", err)
		}
		p.reportDepth()
		if item.EndOfInput {
			return records, nil
		}
		records = append(records, extract(item.Record))
		p.logger.Debug("consuming", zap.String("url", item.Record.URL))
	}
}

func extract(record crawler.FetchRecord) crawler.HyperlinkRecord {
	if record.Document == nil {
		panic(fmt.Sprintf("pipeline: fetch record for %q has no document", record.URL))
	}
	hyperlinks := links.Extract(record.Document)
	metrics.ObserveExtraction(len(hyperlinks))
	return crawler.HyperlinkRecord{URL: record.URL, Hyperlinks: hyperlinks}
}
