package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Options configures the playwright driver.
type Options struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	// Humanize scrolls and moves the mouse on listing pages.
	Humanize bool
	// ScreenshotDir receives a capture whenever a challenge page shows up.
	// Empty disables screenshots.
	ScreenshotDir string
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *zap.SugaredLogger
}

// NewPlaywright starts the playwright driver and launches Chromium.
func NewPlaywright(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &PlaywrightManager{pw: pw, browser: b, opts: opts, logger: logger}, nil
}

// NewContext creates an isolated browser context seeded with cookies.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ua := pm.opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(ua),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return bctx, nil
}

// NewSession opens a context with one tab and wraps it as a Session.
func (pm *PlaywrightManager) NewSession(cookies []playwright.OptionalCookie) (*PlaywrightSession, error) {
	bctx, err := pm.NewContext(cookies)
	if err != nil {
		return nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	s := &PlaywrightSession{
		bctx:   bctx,
		opts:   pm.opts,
		logger: pm.logger,
		pages:  make(map[string]playwright.Page),
	}
	if pm.opts.ScreenshotDir != "" {
		s.shots = NewScreenshotDebugger(pm.opts.ScreenshotDir, pm.logger)
	}
	s.active = s.addPage(page)
	return s, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		errs = append(errs, pm.browser.Close())
	}
	if pm.pw != nil {
		errs = append(errs, pm.pw.Stop())
	}
	return errors.Join(errs...)
}

// PlaywrightSession drives the pages of one browser context as tabs.
type PlaywrightSession struct {
	bctx   playwright.BrowserContext
	opts   Options
	logger *zap.SugaredLogger
	shots  *ScreenshotDebugger

	pages  map[string]playwright.Page
	order  []string
	active string
	seq    int
}

func (s *PlaywrightSession) addPage(p playwright.Page) string {
	handle := fmt.Sprintf("tab-%d", s.seq)
	s.seq++
	s.pages[handle] = p
	s.order = append(s.order, handle)
	return handle
}

func (s *PlaywrightSession) page() (playwright.Page, error) {
	p, ok := s.pages[s.active]
	if !ok {
		return nil, ErrNoSuchTab
	}
	return p, nil
}

func (s *PlaywrightSession) gotoOptions() playwright.PageGotoOptions {
	return playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.opts.NavigationTimeout.Milliseconds())),
	}
}

func (s *PlaywrightSession) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.page()
	if err != nil {
		return err
	}
	if _, err := p.Goto(rawURL, s.gotoOptions()); err != nil {
		return fmt.Errorf("navigate to %s: %w", rawURL, err)
	}

	if title, _ := p.Title(); isChallenge(title) {
		s.logger.Warnf("🛡️ Challenge page detected on %s (%q)", rawURL, title)
		if s.shots != nil {
			_ = s.shots.CaptureAndLog(p, "challenge", "Challenge page on listings")
		}
	}

	if s.opts.Humanize {
		if err := HumanScroll(p); err != nil {
			s.logger.Debugf("human scroll failed: %v", err)
		}
	}
	return nil
}

func isChallenge(title string) bool {
	return strings.Contains(title, "Attention Required") ||
		strings.Contains(title, "Just a moment") ||
		strings.Contains(title, "Cloudflare")
}

func (s *PlaywrightSession) Anchors(ctx context.Context) ([]Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.page()
	if err != nil {
		return nil, err
	}
	locs, err := p.Locator("a").All()
	if err != nil {
		return nil, fmt.Errorf("list anchors: %w", err)
	}
	base, _ := url.Parse(p.URL())
	anchors := make([]Anchor, len(locs))
	for i, l := range locs {
		anchors[i] = locatorAnchor{loc: l, base: base}
	}
	return anchors, nil
}

func (s *PlaywrightSession) Find(ctx context.Context, selector string) (Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.page()
	if err != nil {
		return nil, err
	}
	loc := p.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", selector, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNotFound)
	}
	base, _ := url.Parse(p.URL())
	return locatorAnchor{loc: loc.First(), base: base}, nil
}

func (s *PlaywrightSession) OpenTab(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	if _, err := p.Goto(rawURL, s.gotoOptions()); err != nil {
		_ = p.Close()
		return "", fmt.Errorf("navigate tab to %s: %w", rawURL, err)
	}
	return s.addPage(p), nil
}

func (s *PlaywrightSession) SwitchTab(handle string) error {
	p, ok := s.pages[handle]
	if !ok {
		return fmt.Errorf("%s: %w", handle, ErrNoSuchTab)
	}
	if err := p.BringToFront(); err != nil {
		return fmt.Errorf("switch to %s: %w", handle, err)
	}
	s.active = handle
	return nil
}

func (s *PlaywrightSession) ActiveTab() string {
	return s.active
}

func (s *PlaywrightSession) Tabs() []string {
	return append([]string(nil), s.order...)
}

func (s *PlaywrightSession) CloseTab(handle string) error {
	p, ok := s.pages[handle]
	if !ok {
		return fmt.Errorf("%s: %w", handle, ErrNoSuchTab)
	}
	delete(s.pages, handle)
	for i, h := range s.order {
		if h == handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == handle && len(s.order) > 0 {
		s.active = s.order[0]
	}
	return p.Close()
}

func (s *PlaywrightSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.page()
	if err != nil {
		return err
	}
	_, err = p.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

func (s *PlaywrightSession) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.page()
	if err != nil {
		return "", err
	}
	text, err := p.Locator(selector).First().InnerText()
	if err != nil {
		return "", fmt.Errorf("inner text of %s: %w", selector, err)
	}
	return text, nil
}

func (s *PlaywrightSession) Close() error {
	s.pages = make(map[string]playwright.Page)
	s.order = nil
	s.active = ""
	return s.bctx.Close()
}

type locatorAnchor struct {
	loc  playwright.Locator
	base *url.URL
}

// Href reads the attribute with a short timeout; a detached element surfaces
// as ErrStaleElement.
func (a locatorAnchor) Href() (string, error) {
	href, err := a.loc.GetAttribute("href", playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(1000),
	})
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrStaleElement)
	}
	if href == "" {
		return "", nil
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("bad href %q: %w", href, ErrStaleElement)
	}
	if a.base == nil {
		return ref.String(), nil
	}
	return a.base.ResolveReference(ref).String(), nil
}
