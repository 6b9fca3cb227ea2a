// Package indeed is the Indeed listings profile.
package indeed

import (
	"regexp"
	"strings"

	"go-job-harvester/internal/scraper"
)

const (
	Name = "indeed"
	// DefaultBaseURL is the US site; country sites share the same paths.
	DefaultBaseURL = "https://www.indeed.com"

	nextPageSelector = "a[data-testid='pagination-page-next']"
)

// New returns the Indeed profile rooted at baseURL ("" = DefaultBaseURL).
// Posting links are the /rc/clk click-through redirects on that host.
func New(baseURL string) scraper.Site {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return scraper.Site{
		Name:             Name,
		SearchURL:        base + "/jobs",
		PostingPattern:   regexp.MustCompile("^" + regexp.QuoteMeta(base+"/rc/clk")),
		NextPageSelector: nextPageSelector,
		ReadySelector:    "body",
		ContentSelector:  "body",
	}
}
