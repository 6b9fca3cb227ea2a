package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// ScreenshotDebugger saves full-page captures of pages that blocked the crawl.
type ScreenshotDebugger struct {
	outputDir string
	logger    *zap.SugaredLogger
}

func NewScreenshotDebugger(dir string, logger *zap.SugaredLogger) *ScreenshotDebugger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warnf("⚠️ Failed to create screenshot dir %s: %v", dir, err)
	}
	return &ScreenshotDebugger{outputDir: dir, logger: logger}
}

func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	path := s.path(name, time.Now())
	s.logger.Infof("📸 %s", message)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warnf("⚠️ Failed to capture screenshot: %v", err)
		return err
	}
	s.logger.Infof("   Screenshot saved: %s", path)
	return nil
}

func (s *ScreenshotDebugger) path(name string, at time.Time) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, at.Format("2006-01-02_15-04-05")))
}
