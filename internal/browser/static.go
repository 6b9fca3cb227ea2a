package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultUserAgent is sent by the static driver.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

type staticTab struct {
	url *url.URL
	doc *goquery.Document
}

// StaticSession is a Session over plain HTTP. Every tab is an independently
// fetched, parsed document; no JavaScript runs.
type StaticSession struct {
	client    *http.Client
	userAgent string
	logger    *zap.SugaredLogger

	tabs   map[string]*staticTab
	order  []string
	active string
	seq    int
}

// NewStaticSession returns a session with one blank tab.
func NewStaticSession(client *http.Client, logger *zap.SugaredLogger) *StaticSession {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &StaticSession{
		client:    client,
		userAgent: DefaultUserAgent,
		logger:    logger,
		tabs:      make(map[string]*staticTab),
	}
	s.active = s.addTab(&staticTab{})
	return s
}

func (s *StaticSession) addTab(t *staticTab) string {
	handle := fmt.Sprintf("tab-%d", s.seq)
	s.seq++
	s.tabs[handle] = t
	s.order = append(s.order, handle)
	return handle
}

func (s *StaticSession) load(ctx context.Context, rawURL string) (*staticTab, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	// redirects land the document somewhere else
	return &staticTab{url: resp.Request.URL, doc: doc}, nil
}

func (s *StaticSession) current() (*staticTab, error) {
	t, ok := s.tabs[s.active]
	if !ok {
		return nil, ErrNoSuchTab
	}
	if t.doc == nil {
		return nil, fmt.Errorf("tab %s has no document loaded", s.active)
	}
	return t, nil
}

func (s *StaticSession) Navigate(ctx context.Context, rawURL string) error {
	t, err := s.load(ctx, rawURL)
	if err != nil {
		return err
	}
	s.tabs[s.active] = t
	s.logger.Debugf("🌐 Loaded %s", rawURL)
	return nil
}

func (s *StaticSession) Anchors(_ context.Context) ([]Anchor, error) {
	t, err := s.current()
	if err != nil {
		return nil, err
	}
	var anchors []Anchor
	t.doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		anchors = append(anchors, staticAnchor{sel: sel, base: t.url})
	})
	return anchors, nil
}

func (s *StaticSession) Find(_ context.Context, selector string) (Anchor, error) {
	t, err := s.current()
	if err != nil {
		return nil, err
	}
	sel := t.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNotFound)
	}
	return staticAnchor{sel: sel, base: t.url}, nil
}

func (s *StaticSession) OpenTab(ctx context.Context, rawURL string) (string, error) {
	t, err := s.load(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return s.addTab(t), nil
}

func (s *StaticSession) SwitchTab(handle string) error {
	if _, ok := s.tabs[handle]; !ok {
		return fmt.Errorf("%s: %w", handle, ErrNoSuchTab)
	}
	s.active = handle
	return nil
}

func (s *StaticSession) ActiveTab() string {
	return s.active
}

func (s *StaticSession) Tabs() []string {
	return append([]string(nil), s.order...)
}

func (s *StaticSession) CloseTab(handle string) error {
	if _, ok := s.tabs[handle]; !ok {
		return fmt.Errorf("%s: %w", handle, ErrNoSuchTab)
	}
	delete(s.tabs, handle)
	for i, h := range s.order {
		if h == handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == handle && len(s.order) > 0 {
		s.active = s.order[0]
	}
	return nil
}

// WaitFor does not poll: a static document is complete once it is parsed.
func (s *StaticSession) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	t, err := s.current()
	if err != nil {
		return err
	}
	if t.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%s: %w", selector, ErrNotFound)
	}
	return nil
}

func (s *StaticSession) Text(_ context.Context, selector string) (string, error) {
	t, err := s.current()
	if err != nil {
		return "", err
	}
	sel := t.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%s: %w", selector, ErrNotFound)
	}
	return VisibleText(sel), nil
}

func (s *StaticSession) Close() error {
	s.tabs = make(map[string]*staticTab)
	s.order = nil
	s.active = ""
	return nil
}

type staticAnchor struct {
	sel  *goquery.Selection
	base *url.URL
}

func (a staticAnchor) Href() (string, error) {
	href, ok := a.sel.Attr("href")
	if !ok {
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

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "nav": true, "dd": true, "dt": true, "pre": true,
}

var hiddenElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// VisibleText approximates what a browser's innerText returns: block
// elements break lines, hidden elements are dropped, blank lines collapse.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if hiddenElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				b.WriteByte('\n')
				defer b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
