// Package browser wraps the navigable-document provider the crawl loop drives:
// a real Chromium through playwright-go, or a plain HTTP + goquery driver.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no element matches a selector.
	ErrNotFound = errors.New("element not found")
	// ErrStaleElement is returned when an element vanished before it could be read.
	ErrStaleElement = errors.New("stale element reference")
	// ErrNoSuchTab is returned for an unknown tab handle.
	ErrNoSuchTab = errors.New("no such tab")
)

// Anchor is a link element on the active tab.
type Anchor interface {
	// Href returns the absolute link target.
	Href() (string, error)
}

// Session is one browser window with tabs. It is not safe for concurrent use;
// the engine drives it strictly sequentially.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Anchors(ctx context.Context) ([]Anchor, error)
	Find(ctx context.Context, selector string) (Anchor, error)

	// OpenTab loads url in a new tab without switching to it.
	OpenTab(ctx context.Context, url string) (string, error)
	SwitchTab(handle string) error
	ActiveTab() string
	Tabs() []string
	CloseTab(handle string) error

	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Text(ctx context.Context, selector string) (string, error)

	Close() error
}
