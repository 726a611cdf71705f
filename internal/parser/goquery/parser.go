// Package goqueryparser implements crawler.Parser using goquery.
package goqueryparser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/avolkov/crawlkit/internal/crawler"
)

// Parser extracts the title, text content, and outbound links from HTML.
// It is stateless and safe for concurrent use.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse builds a document from rawHTML and resolves every anchor href
// against baseURL. Links keep document order; non-http(s) schemes such as
// mailto and javascript are dropped.
func (p *Parser) Parse(rawHTML []byte, baseURL string) (crawler.ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return crawler.ParseResult{}, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return crawler.ParseResult{}, fmt.Errorf("parse base url: %w", err)
	}

	result := crawler.ParseResult{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  collapseWhitespace(doc.Find("body").Text()),
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		switch strings.ToLower(abs.Scheme) {
		case "http", "https":
			result.Links = append(result.Links, abs.String())
		}
	})

	return result, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
