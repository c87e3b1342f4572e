package crawler

import (
	"context"
)

// Fetcher fetches a URL and returns the parsed document or a failure reason.
// Implementations never return failures through panics.
type Fetcher interface {
	Fetch(ctx context.Context, url string) FetchResult
}

// Queue is the bounded FIFO shared by the fetcher and extractor stages.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	TryEnqueue(item QueueItem) bool
	Dequeue(ctx context.Context) (QueueItem, error)
}

// FetchLog records fetch warnings and failures, one line per outcome.
type FetchLog interface {
	BadStatus(url string, statusCode int)
	Failure(url string, err error)
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Progress observes fetcher iterations.
type Progress interface {
	Advance()
	Finish()
}
