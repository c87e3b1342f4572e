// Package links extracts anchor hyperlinks from parsed HTML documents.
package links

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// anchorSelector matches anchors that carry an href attribute, empty or not.
const anchorSelector = "a[href]"

// Extract returns the href of every anchor in doc, in document order.
// Anchors without an href are skipped. The result is never nil.
func Extract(doc *goquery.Document) []string {
	links := []string{}
	if doc == nil {
		return links
	}
	doc.Find(anchorSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}

// ExtractFromHTML parses markup leniently and extracts its links.
func ExtractFromHTML(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return Extract(doc), nil
}
