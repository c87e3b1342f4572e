// Package local reads the URL list and writes the result artifact on the local filesystem.
package local

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/linkextractor/internal/crawler"
)

// ReadURLs reads a newline-separated URL list. A trailing newline does not add
// an entry and CRLF line endings are tolerated; blank lines inside the file are
// kept as empty URLs.
func ReadURLs(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return splitLines(string(data)), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// WriteResults serializes records as a JSON array and writes them to path in one
// step, creating parent directories as needed.
func WriteResults(path string, records []crawler.HyperlinkRecord) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is required")
	}
	out := make([]crawler.HyperlinkRecord, len(records))
	for i, rec := range records {
		if rec.Hyperlinks == nil {
			rec.Hyperlinks = []string{}
		}
		out[i] = rec
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write results to %s: %w", path, err)
	}
	return nil
}
