package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPlaywright launches a headless Chromium or skips when none is installed.
func setupPlaywright(t *testing.T) *PlaywrightManager {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pm, err := NewPlaywright(context.Background(), Options{Headless: true, NavigationTimeout: 10 * time.Second}, nil)
	if err != nil {
		t.Skipf("playwright not available: %v", err)
	}
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

func TestIsChallenge(t *testing.T) {
	assert.True(t, isChallenge("Attention Required! | Cloudflare"))
	assert.True(t, isChallenge("Just a moment..."))
	assert.False(t, isChallenge("Software Engineer Jobs, Employment in Remote | Indeed"))
}

func TestPlaywrightSession_TabsAndText(t *testing.T) {
	pm := setupPlaywright(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<a href="/rc/clk?jk=1">one</a>
<a class="next" href="/jobs?start=10">Next</a>
</body></html>`))
	})
	mux.HandleFunc("/rc/clk", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Full-time position</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := pm.NewSession(nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL+"/jobs"))

	anchors, err := s.Anchors(ctx)
	require.NoError(t, err)
	require.Len(t, anchors, 2)
	href, err := anchors[0].Href()
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/rc/clk?jk=1", href)

	next, err := s.Find(ctx, "a.next")
	require.NoError(t, err)
	href, err = next.Href()
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/jobs?start=10", href)

	_, err = s.Find(ctx, "a.missing")
	assert.ErrorIs(t, err, ErrNotFound)

	first := s.ActiveTab()
	tab, err := s.OpenTab(ctx, href)
	require.NoError(t, err)
	assert.Len(t, s.Tabs(), 2)
	assert.Equal(t, first, s.ActiveTab())

	require.NoError(t, s.Navigate(ctx, srv.URL+"/rc/clk?jk=1"))
	require.NoError(t, s.SwitchTab(tab))
	require.NoError(t, s.WaitFor(ctx, "body", 5*time.Second))
	require.NoError(t, s.SwitchTab(first))
	text, err := s.Text(ctx, "body")
	require.NoError(t, err)
	assert.Contains(t, text, "Full-time position")

	require.NoError(t, s.CloseTab(tab))
	assert.Equal(t, []string{first}, s.Tabs())
	assert.ErrorIs(t, s.SwitchTab(tab), ErrNoSuchTab)
}
