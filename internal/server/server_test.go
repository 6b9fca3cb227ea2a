package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"go-job-harvester/internal/browser"
	"go-job-harvester/internal/control"
	"go-job-harvester/internal/corpus"
	"go-job-harvester/internal/engine"
	"go-job-harvester/internal/fetcher"
	"go-job-harvester/internal/scraper"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/rc/clk?jk=1">one</a></body></html>`))
	})
	mux.HandleFunc("/rc/clk", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Salary: $50 - $60</body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) (*Server, *control.Controller, *httptest.Server) {
	t.Helper()
	site := newSite(t)
	out := filepath.Join(t.TempDir(), "job_posts.json")
	launch := func(_ context.Context, obs engine.Observer) (*engine.Engine, browser.Session, error) {
		eng, err := engine.New(engine.Options{
			Site: scraper.Site{
				Name:           "test",
				SearchURL:      site.URL + "/jobs",
				PostingPattern: regexp.MustCompile(`^` + regexp.QuoteMeta(site.URL+"/rc/clk")),
			},
			Fetcher:  fetcher.New("body", "body", time.Second, nil),
			Store:    corpus.NewFileStore(out),
			Observer: obs,
			Attempts: 1,
		})
		if err != nil {
			return nil, nil, err
		}
		return eng, browser.NewStaticSession(site.Client(), nil), nil
	}

	ctrl := control.New(context.Background(), launch, nil)
	s, err := NewServer(":0", ctrl, nil)
	require.NoError(t, err)
	return s, ctrl, site
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestServer_StartRunAndReadResults(t *testing.T) {
	s, ctrl, site := newTestServer(t)

	w := do(t, s, http.MethodPost, "/runs", `{"terms":["go"],"location":"Remote","target":3}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	_, err := ctrl.Wait()
	require.NoError(t, err)

	w = do(t, s, http.MethodGet, "/runs/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st control.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.False(t, st.Running)
	assert.Equal(t, engine.StatusFinished, st.Status)
	assert.Equal(t, 1, st.Postings)

	w = do(t, s, http.MethodGet, "/runs/snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Contains(t, snap, site.URL+"/rc/clk?jk=1")
	assert.Equal(t, "Salary: $50 - $60", snap[site.URL+"/rc/clk?jk=1"]["salary"])
}

func TestServer_RejectsBadRequests(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `terms=go`},
		{"no terms", `{"target":1}`},
		{"zero target", `{"terms":["go"],"target":0}`},
		{"duplicate terms", `{"terms":["go","go"],"target":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/runs", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestServer_SignalsWithoutRunConflict(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, path := range []string{"/runs/stop", "/runs/next"} {
		w := do(t, s, http.MethodPost, path, "")
		assert.Equal(t, http.StatusConflict, w.Code, path)
	}
}

func TestServer_EmptySnapshot(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/runs/snapshot", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}
