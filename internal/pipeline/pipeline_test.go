package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkextractor/internal/crawler"
	"github.com/JakeFAU/linkextractor/internal/queue/memory"
)

const (
	pageOne   = `<!DOCTYPE html><html><body><a href="www.test.com">url</a></body></html>`
	pageTwo   = `<!DOCTYPE html><html><body><a href="www.test.com"><a href="www.test2.com">url2</a></body></html>`
	pageEmpty = `<!DOCTYPE html><html><body></body></html>`
)

type fakeFetcher struct {
	pages map[string]string
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) crawler.FetchResult {
	f.calls.Add(1)
	markup, ok := f.pages[url]
	if !ok {
		return crawler.FetchResult{URL: url, Err: errors.New("connection refused")}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return crawler.FetchResult{URL: url, Err: err}
	}
	return crawler.FetchResult{URL: url, StatusCode: 200, Document: doc}
}

type countingProgress struct {
	mu       sync.Mutex
	advanced int
	finished bool
}

func (p *countingProgress) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanced++
}

func (p *countingProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
}

func TestRunSkipsFailedFetches(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"http://t1": pageOne,
		"http://t2": pageTwo,
	}}
	progress := &countingProgress{}
	p := New(memory.NewQueue(10), fetcher, Options{Progress: progress}, zap.NewNop())

	res, err := p.Run(context.Background(), []string{"http://t1", "http://t2", "http://t3"})
	require.NoError(t, err)
	require.Equal(t, []crawler.HyperlinkRecord{
		{URL: "http://t1", Hyperlinks: []string{"www.test.com"}},
		{URL: "http://t2", Hyperlinks: []string{"www.test.com", "www.test2.com"}},
	}, res.Records)
	require.Equal(t, Stats{URLs: 3, Fetched: 2, Failed: 1, Extracted: 2}, res.Stats)
	require.Equal(t, 3, progress.advanced)
	require.True(t, progress.finished)
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	p := New(memory.NewQueue(1), &fakeFetcher{}, Options{}, nil)
	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, res.Records)
	require.Empty(t, res.Records)
}

func TestRunEmptyDocumentYieldsEmptyLinks(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{"http://t3": pageEmpty}}
	p := New(memory.NewQueue(2), fetcher, Options{}, zap.NewNop())

	res, err := p.Run(context.Background(), []string{"http://t3"})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.NotNil(t, res.Records[0].Hyperlinks)
	require.Empty(t, res.Records[0].Hyperlinks)
}

func TestRunPreservesInputOrder(t *testing.T) {
	t.Parallel()

	pages := map[string]string{}
	var urls []string
	for _, u := range []string{"http://a", "http://b", "http://c", "http://d", "http://e"} {
		pages[u] = `<a href="` + u + `/next">n</a>`
		urls = append(urls, u)
	}
	p := New(memory.NewQueue(2), &fakeFetcher{pages: pages}, Options{Policy: crawler.DeliveryBlocking}, zap.NewNop())

	res, err := p.Run(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, res.Records, len(urls))
	for i, rec := range res.Records {
		require.Equal(t, urls[i], rec.URL)
		require.Equal(t, []string{urls[i] + "/next"}, rec.Hyperlinks)
	}
}

func TestProduceDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"http://t1": pageOne,
		"http://t2": pageTwo,
		"http://t3": pageEmpty,
	}}
	q := memory.NewQueue(1)
	p := New(q, fetcher, Options{Policy: crawler.DeliveryBestEffort}, zap.NewNop())

	type produced struct {
		stats Stats
		err   error
	}
	done := make(chan produced, 1)
	go func() {
		s, err := p.Produce(context.Background(), []string{"http://t1", "http://t2", "http://t3"})
		done <- produced{s, err}
	}()

	// Nothing drains the queue until every URL has been fetched, so only the
	// first record fits and the sentinel enqueue is left waiting.
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("producer finished before the sentinel could be enqueued")
	case <-time.After(50 * time.Millisecond):
	}

	records, err := p.Consume(context.Background())
	require.NoError(t, err)
	require.Equal(t, []crawler.HyperlinkRecord{
		{URL: "http://t1", Hyperlinks: []string{"www.test.com"}},
	}, records)

	got := <-done
	require.NoError(t, got.err)
	require.Equal(t, Stats{URLs: 3, Fetched: 3, Dropped: 2}, got.stats)
}

func TestProduceBlockingPolicyDeliversEverything(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"http://t1": pageOne,
		"http://t2": pageTwo,
		"http://t3": pageEmpty,
	}}
	p := New(memory.NewQueue(1), fetcher, Options{Policy: crawler.DeliveryBlocking}, zap.NewNop())

	res, err := p.Run(context.Background(), []string{"http://t1", "http://t2", "http://t3"})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	require.Zero(t, res.Stats.Dropped)
}

func TestConsumeStopsAfterSentinel(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(1)
	p := New(q, &fakeFetcher{}, Options{}, zap.NewNop())

	var running atomic.Bool
	running.Store(true)
	go func() {
		defer running.Store(false)
		_, _ = p.Consume(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, running.Load(), "extractor should wait for input")

	require.NoError(t, q.Enqueue(context.Background(), crawler.EndOfInput))
	require.Eventually(t, func() bool { return !running.Load() }, 200*time.Millisecond, 5*time.Millisecond)
}

func TestConsumeReturnsOnCancel(t *testing.T) {
	t.Parallel()

	p := New(memory.NewQueue(1), &fakeFetcher{}, Options{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := p.Consume(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, records)
}

type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, url string) crawler.FetchResult {
	<-ctx.Done()
	return crawler.FetchResult{URL: url, Err: ctx.Err()}
}

func TestRunCanceledContext(t *testing.T) {
	t.Parallel()

	p := New(memory.NewQueue(1), blockingFetcher{}, Options{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := p.Run(ctx, []string{"http://t1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractPanicsOnMissingDocument(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		extract(crawler.FetchRecord{URL: "http://broken"})
	})
}
