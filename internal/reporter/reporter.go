// Package reporter holds engine observers that push run progress somewhere
// a human can see it.
package reporter

import (
	"fmt"
	"sync"
	"time"

	"go-job-harvester/internal/corpus"
	"go-job-harvester/internal/engine"

	"go.uber.org/zap"
)

// Notifier is the subset of telegram.Bot the reporter needs.
type Notifier interface {
	SendStatus(message string) error
	SendError(err error) error
	SendPosting(url string, fields map[string]string) error
}

// queueSize bounds the messages waiting for the Telegram sender.
const queueSize = 128

// TelegramReporter forwards coarse run status to a chat. With Postings set,
// every newly stored posting is pushed as well. Messages are queued and sent
// from a background goroutine so the engine never waits on the network;
// Close drains the queue.
type TelegramReporter struct {
	notifier Notifier
	logger   *zap.SugaredLogger
	Postings bool

	mu     sync.Mutex
	closed bool
	queue  chan func() error
	done   chan struct{}
	once   sync.Once
}

func NewTelegramReporter(notifier Notifier, logger *zap.SugaredLogger) *TelegramReporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	t := &TelegramReporter{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan func() error, queueSize),
		done:     make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *TelegramReporter) loop() {
	defer close(t.done)
	for send := range t.queue {
		if err := send(); err != nil {
			t.logger.Warnf("⚠️ Failed to send Telegram message: %v", err)
		}
	}
}

// enqueue never blocks; a full queue drops the message with a warning.
func (t *TelegramReporter) enqueue(send func() error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- send:
	default:
		t.logger.Warnf("⚠️ Telegram queue full, dropping message")
	}
}

func (t *TelegramReporter) OnStatus(status engine.Status) {
	msg := fmt.Sprintf("Harvest %s", status)
	t.enqueue(func() error { return t.notifier.SendStatus(msg) })
}

// OnSnapshot pushes the posting stored last. The engine emits one snapshot
// per stored posting and URLs keep insertion order, so postings preloaded
// from an earlier run are never re-sent.
func (t *TelegramReporter) OnSnapshot(snapshot *corpus.Corpus) {
	if !t.Postings {
		return
	}
	urls := snapshot.URLs()
	if len(urls) == 0 {
		return
	}
	url := urls[len(urls)-1]
	rec, _ := snapshot.Get(url)
	t.enqueue(func() error { return t.notifier.SendPosting(url, rec) })
}

func (t *TelegramReporter) OnFinished(summary engine.Summary) {
	msg := FormatSummary(summary)
	t.enqueue(func() error { return t.notifier.SendStatus(msg) })
}

// ReportError pushes a fatal run error to the chat.
func (t *TelegramReporter) ReportError(err error) {
	t.enqueue(func() error { return t.notifier.SendError(err) })
}

// Close stops accepting messages and waits until the queued ones are sent.
func (t *TelegramReporter) Close() {
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.queue)
		t.mu.Unlock()
	})
	<-t.done
}

// FormatSummary renders a one-line run summary.
func FormatSummary(s engine.Summary) string {
	msg := fmt.Sprintf("Run %s finished: %d postings (%d new, %d skipped), %d term(s), %d page(s) in %s",
		shortID(s.RunID), s.Postings, s.Added, s.Skipped, s.TermsSearched, s.Pages,
		s.Finished.Sub(s.Started).Round(time.Second))
	switch {
	case s.TargetReached:
		msg += ", target reached"
	case s.StoppedEarly:
		msg += ", stopped early"
	}
	return msg
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// LogReporter writes run progress to the structured log.
type LogReporter struct {
	logger *zap.SugaredLogger
}

func NewLogReporter(logger *zap.SugaredLogger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogReporter{logger: logger}
}

func (l *LogReporter) OnStatus(status engine.Status) {
	l.logger.Infow("📣 Run status", "status", string(status))
}

func (l *LogReporter) OnSnapshot(snapshot *corpus.Corpus) {
	l.logger.Debugw("📸 Corpus snapshot", "postings", snapshot.Len())
}

func (l *LogReporter) OnFinished(summary engine.Summary) {
	l.logger.Infow("📊 "+FormatSummary(summary),
		"run_id", summary.RunID,
		"postings", summary.Postings,
		"skipped", summary.Skipped,
	)
}

// Multi fans every notification out to each observer in order.
type Multi []engine.Observer

func (m Multi) OnStatus(status engine.Status) {
	for _, o := range m {
		o.OnStatus(status)
	}
}

func (m Multi) OnSnapshot(snapshot *corpus.Corpus) {
	for _, o := range m {
		o.OnSnapshot(snapshot)
	}
}

func (m Multi) OnFinished(summary engine.Summary) {
	for _, o := range m {
		o.OnFinished(summary)
	}
}
