package telegram

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI answers getMe and sendMessage and records sent texts.
type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	modes []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"harvester","username":"harvester_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.PostForm.Get("text"))
		f.modes = append(f.modes, r.PostForm.Get("parse_mode"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestBot(t *testing.T) (*Bot, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := NewBotWithEndpoint("token", srv.URL+"/bot%s/%s", 42, srv.Client())
	require.NoError(t, err)
	return bot, api
}

func TestBot_SendStatusAndError(t *testing.T) {
	bot, api := newTestBot(t)

	require.NoError(t, bot.SendStatus("Run started"))
	require.NoError(t, bot.SendError(errors.New("boom")))

	assert.Equal(t, []string{"ℹ️ Run started", "❌ Error: boom"}, api.texts)
}

func TestBot_SendPosting(t *testing.T) {
	bot, api := newTestBot(t)

	err := bot.SendPosting("https://www.indeed.com/rc/clk?jk=1", map[string]string{
		"job_title": "Job Title: Go Engineer",
		"salary":    "Salary: $100,000 - $120,000",
	})
	require.NoError(t, err)

	require.Len(t, api.texts, 1)
	assert.Equal(t, "MarkdownV2", api.modes[0])
	assert.Contains(t, api.texts[0], "*Job Title: Go Engineer*")
	assert.Contains(t, api.texts[0], `💰 Salary: $100,000 \- $120,000`)
	assert.Contains(t, api.texts[0], "[View Job](https://www.indeed.com/rc/clk?jk=1)")
	assert.NotContains(t, api.texts[0], "🏢")
}

func TestBot_EscapeMarkdown(t *testing.T) {
	b := &Bot{}
	assert.Equal(t, `C\+\+ \(senior\)\.`, b.escapeMarkdown("C++ (senior)."))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", snippetLimit+5)
	got := truncate(long)
	assert.Equal(t, snippetLimit+1, len([]rune(got)))
	assert.Equal(t, "short", truncate("short"))
}
