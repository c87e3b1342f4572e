// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkextractor/internal/crawler"
	"github.com/JakeFAU/linkextractor/internal/metrics"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0"

var errNoResponse = errors.New("no response received")

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements crawler.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	fetchLog      crawler.FetchLog
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. fetchLog receives one line per bad status or failure.
func New(cfg Config, fetchLog crawler.FetchLog, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		fetchLog:      fetchLog,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET and parses the body as HTML.
// Failures never escape as errors: they are logged and reported through FetchResult.Err.
func (f *Fetcher) Fetch(ctx context.Context, url string) crawler.FetchResult {
	var (
		resp     *colly.Response
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, &resp, &fetchErr)

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return f.fail(url, err, start)
	}
	if resp == nil {
		return f.fail(url, errNoResponse, start)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return f.fail(url, fmt.Errorf("parse html: %w", err), start)
	}

	outcome := metrics.OutcomeOK
	if isErrorStatus(resp.StatusCode) {
		outcome = metrics.OutcomeBadStatus
		f.fetchLog.BadStatus(url, resp.StatusCode)
	}
	metrics.ObserveFetch(url, outcome, len(resp.Body), time.Since(start))
	f.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
	)
	return crawler.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		Document:   doc,
	}
}

func (f *Fetcher) fail(url string, err error, start time.Time) crawler.FetchResult {
	f.fetchLog.Failure(url, err)
	metrics.ObserveFetch(url, metrics.OutcomeFailed, 0, time.Since(start))
	return crawler.FetchResult{URL: url, Err: err}
}

func (f *Fetcher) buildCollector(ctx context.Context) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.Context = ctx
	collector.IgnoreRobotsTxt = true
	// Every URL is fetched even when it repeats in the input.
	collector.AllowURLRevisit = true
	// Error statuses must still reach OnResponse so their markup is parsed.
	collector.ParseHTTPErrorResponse = true
	if f.cfg.MaxBodyBytes > 0 {
		collector.MaxBodySize = f.cfg.MaxBodyBytes
	}
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	result **colly.Response,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = r
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func isErrorStatus(code int) bool {
	return code >= http.StatusBadRequest && code < 600
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
