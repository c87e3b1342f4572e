package crawler

import (
	"github.com/PuerkitoBio/goquery"
)

// FetchRecord carries a parsed page from the fetcher to the extractor.
// Records are only built for successful fetches.
type FetchRecord struct {
	URL      string
	Document *goquery.Document
}

// HyperlinkRecord is one element of the output artifact.
type HyperlinkRecord struct {
	URL        string   `json:"url"`
	Hyperlinks []string `json:"hyperlinks"`
}

// FetchResult is returned by a Fetcher. Document is nil when the fetch failed,
// in which case Err describes why.
type FetchResult struct {
	URL        string
	StatusCode int
	Document   *goquery.Document
	Err        error
}

// OK reports whether the fetch produced a document.
func (r FetchResult) OK() bool {
	return r.Document != nil
}

// QueueItem is either a FetchRecord or the end-of-input marker.
type QueueItem struct {
	Record     FetchRecord
	EndOfInput bool
}

// EndOfInput is the sentinel the fetcher enqueues exactly once, after its input is exhausted.
var EndOfInput = QueueItem{EndOfInput: true}

// DeliveryPolicy controls what the fetcher does when the queue is full.
type DeliveryPolicy string

// Delivery policies.
const (
	// DeliveryBestEffort drops a record if the queue is full at the moment it is offered.
	DeliveryBestEffort DeliveryPolicy = "best_effort"
	// DeliveryBlocking waits for queue space so no record is ever dropped.
	DeliveryBlocking DeliveryPolicy = "blocking"
)

// Valid reports whether p names a known policy.
func (p DeliveryPolicy) Valid() bool {
	switch p {
	case DeliveryBestEffort, DeliveryBlocking:
		return true
	default:
		return false
	}
}
