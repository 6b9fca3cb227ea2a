// Package fetcher opens a single posting in its own tab and returns its text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-job-harvester/internal/browser"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// DefaultTimeout bounds the wait for a posting's root element.
const DefaultTimeout = 10 * time.Second

// ErrEmptyContent is returned when a posting rendered no visible text.
var ErrEmptyContent = errors.New("posting has no visible text")

// Fetcher loads postings in a throwaway tab. The tab never outlives Fetch.
type Fetcher struct {
	// ReadySelector must be present before text is read.
	ReadySelector string
	// ContentSelector is the element whose visible text is returned.
	ContentSelector string
	Timeout         time.Duration
	logger          *zap.SugaredLogger
}

func New(readySelector, contentSelector string, timeout time.Duration, logger *zap.SugaredLogger) *Fetcher {
	if readySelector == "" {
		readySelector = "body"
	}
	if contentSelector == "" {
		contentSelector = readySelector
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Fetcher{
		ReadySelector:   readySelector,
		ContentSelector: contentSelector,
		Timeout:         timeout,
		logger:          logger,
	}
}

// Fetch opens url in a new tab, waits for it, and returns its trimmed text.
// Whatever happens, the original tab is active again and the new tab is
// closed when Fetch returns.
func (f *Fetcher) Fetch(ctx context.Context, session browser.Session, url string) (text string, err error) {
	original := session.ActiveTab()

	handle, err := session.OpenTab(ctx, url)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", url, err)
	}
	// Cleanup failures are logged; they only join err when the fetch itself
	// failed, so text that was read is never thrown away.
	defer func() {
		if swErr := session.SwitchTab(original); swErr != nil {
			f.logger.Warnf("⚠️ Could not restore tab %s: %v", original, swErr)
			if err != nil {
				err = errors.Join(err, swErr)
			}
		}
		if clErr := session.CloseTab(handle); clErr != nil {
			f.logger.Warnf("⚠️ Could not close tab %s: %v", handle, clErr)
			if err != nil {
				err = errors.Join(err, clErr)
			}
		}
	}()

	if err := session.SwitchTab(handle); err != nil {
		return "", err
	}
	if err := session.WaitFor(ctx, f.ReadySelector, f.Timeout); err != nil {
		return "", fmt.Errorf("%s not ready: %w", url, err)
	}

	raw, err := session.Text(ctx, f.ContentSelector)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	text = cleanText(raw)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// cleanText NFC-normalises and trims page text so composed and decomposed
// accents classify the same way.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
