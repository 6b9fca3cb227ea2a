package reporter

import (
	"errors"
	"testing"
	"time"

	"go-job-harvester/internal/corpus"
	"go-job-harvester/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeNotifier struct {
	statuses []string
	errs     []error
	postings []string
	fail     error
}

func (f *fakeNotifier) SendStatus(message string) error {
	f.statuses = append(f.statuses, message)
	return f.fail
}

func (f *fakeNotifier) SendError(err error) error {
	f.errs = append(f.errs, err)
	return f.fail
}

func (f *fakeNotifier) SendPosting(url string, _ map[string]string) error {
	f.postings = append(f.postings, url)
	return f.fail
}

func snapshotOf(urls ...string) *corpus.Corpus {
	c := corpus.New()
	for _, u := range urls {
		c.Add(u, corpus.Record{})
	}
	return c
}

func TestTelegramReporter_Status(t *testing.T) {
	n := &fakeNotifier{}
	r := NewTelegramReporter(n, nil)

	r.OnStatus(engine.StatusStarted)
	r.OnSnapshot(snapshotOf("a"))
	r.OnFinished(engine.Summary{RunID: "0123456789", Postings: 1, Added: 1, TargetReached: true})
	r.Close()

	assert.Empty(t, n.postings)
	require.Len(t, n.statuses, 2)
	assert.Equal(t, "Harvest started", n.statuses[0])
	assert.Contains(t, n.statuses[1], "Run 01234567 finished: 1 postings")
	assert.Contains(t, n.statuses[1], "target reached")
}

func TestTelegramReporter_PushesEachNewPostingOnce(t *testing.T) {
	n := &fakeNotifier{}
	r := NewTelegramReporter(n, nil)
	r.Postings = true

	r.OnSnapshot(snapshotOf("a"))
	r.OnSnapshot(snapshotOf("a", "b"))
	r.OnSnapshot(snapshotOf("a", "b", "c"))
	r.Close()

	assert.Equal(t, []string{"a", "b", "c"}, n.postings)
}

func TestTelegramReporter_SkipsPreloadedPostings(t *testing.T) {
	n := &fakeNotifier{}
	r := NewTelegramReporter(n, nil)
	r.Postings = true

	r.OnSnapshot(snapshotOf("old1", "old2", "new1"))
	r.OnSnapshot(snapshotOf("old1", "old2", "new1", "new2"))
	r.Close()

	assert.Equal(t, []string{"new1", "new2"}, n.postings)
}

// blockingNotifier holds every send until release is closed.
type blockingNotifier struct {
	fakeNotifier
	release chan struct{}
}

func (b *blockingNotifier) SendStatus(message string) error {
	<-b.release
	return b.fakeNotifier.SendStatus(message)
}

func TestTelegramReporter_DoesNotBlockEngine(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{})}
	r := NewTelegramReporter(n, nil)

	returned := make(chan struct{})
	go func() {
		r.OnStatus(engine.StatusStarted)
		r.OnStatus(engine.StatusFinished)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("observer call waited on the Telegram send")
	}

	close(n.release)
	r.Close()
	assert.Equal(t, []string{"Harvest started", "Harvest finished"}, n.statuses)

	r.OnStatus(engine.StatusStopped)
	assert.Len(t, n.statuses, 2)
}

func TestTelegramReporter_LogsSendFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := &fakeNotifier{fail: errors.New("429 Too Many Requests")}
	r := NewTelegramReporter(n, zap.New(core).Sugar())

	r.OnStatus(engine.StatusStopped)
	r.ReportError(errors.New("boom"))
	r.Close()

	assert.Equal(t, 2, logs.Len())
	assert.Len(t, n.errs, 1)
}

func TestFormatSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := FormatSummary(engine.Summary{
		RunID:         "abc",
		Postings:      3,
		Added:         2,
		Skipped:       1,
		TermsSearched: 2,
		Pages:         4,
		StoppedEarly:  true,
		Started:       start,
		Finished:      start.Add(90 * time.Second),
	})
	assert.Equal(t, "Run abc finished: 3 postings (2 new, 1 skipped), 2 term(s), 4 page(s) in 1m30s, stopped early", got)
}

type countingObserver struct{ status, snaps, finished int }

func (c *countingObserver) OnStatus(engine.Status)    { c.status++ }
func (c *countingObserver) OnSnapshot(*corpus.Corpus) { c.snaps++ }
func (c *countingObserver) OnFinished(engine.Summary) { c.finished++ }

func TestMulti_FansOut(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	m := Multi{a, b, NewLogReporter(nil)}

	m.OnStatus(engine.StatusStarted)
	m.OnSnapshot(snapshotOf("x"))
	m.OnFinished(engine.Summary{})

	for _, o := range []*countingObserver{a, b} {
		assert.Equal(t, 1, o.status)
		assert.Equal(t, 1, o.snaps)
		assert.Equal(t, 1, o.finished)
	}
}
