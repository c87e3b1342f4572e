// Package progress reports fetcher progress on the terminal.
package progress

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Bar advances once per URL the fetcher has handled.
type Bar struct {
	bar  *progressbar.ProgressBar
	done atomic.Int64
}

// NewBar returns a Bar for total URLs writing to w (stderr when nil).
func NewBar(total int, w io.Writer) *Bar {
	if w == nil {
		w = os.Stderr
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("fetching"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(0),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar}
}

// Advance marks one more URL as handled.
func (b *Bar) Advance() {
	b.done.Add(1)
	_ = b.bar.Add(1)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Current returns the number of URLs handled so far.
func (b *Bar) Current() int64 {
	return b.done.Load()
}
