// Package scraper describes the listings site a crawl runs against.
package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Site is everything the crawl loop needs to know about one listings site.
type Site struct {
	// Name is the platform name (Indeed, ...)
	Name string
	// SearchURL is the listings endpoint the query string is appended to.
	SearchURL string
	// PostingPattern matches hrefs of posting detail redirects.
	PostingPattern *regexp.Regexp
	// NextPageSelector finds the "next page" link on a listings page.
	NextPageSelector string
	// ReadySelector and ContentSelector drive the posting fetch.
	ReadySelector   string
	ContentSelector string
}

// QueryURL builds <search-url>?q=<term>&l=<location>, both escaped.
func (s Site) QueryURL(term, location string) string {
	return fmt.Sprintf("%s?q=%s&l=%s", s.SearchURL, escape(term), escape(location))
}

// IsPosting reports whether href points at a posting detail page.
func (s Site) IsPosting(href string) bool {
	return href != "" && s.PostingPattern != nil && s.PostingPattern.MatchString(href)
}

func (s Site) Validate() error {
	if s.SearchURL == "" {
		return fmt.Errorf("site %q: search URL is required", s.Name)
	}
	if _, err := url.ParseRequestURI(s.SearchURL); err != nil {
		return fmt.Errorf("site %q: bad search URL: %w", s.Name, err)
	}
	if s.PostingPattern == nil {
		return fmt.Errorf("site %q: posting pattern is required", s.Name)
	}
	return nil
}

// escape percent-encodes like a browser address bar: spaces become %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
