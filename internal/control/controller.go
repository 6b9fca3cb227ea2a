// Package control owns the lifecycle of crawl runs started from outside the
// engine: one run at a time, with stop, next-term and snapshot access.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-job-harvester/internal/browser"
	"go-job-harvester/internal/corpus"
	"go-job-harvester/internal/engine"

	"go.uber.org/zap"
)

var (
	ErrAlreadyRunning = errors.New("a run is already in progress")
	ErrNotRunning     = errors.New("no run in progress")
)

// Launcher builds the engine and browser session for one run. The observer
// must be passed to the engine so the controller sees progress.
type Launcher func(ctx context.Context, observer engine.Observer) (*engine.Engine, browser.Session, error)

// Status is what the control surface reports about the current or last run.
type Status struct {
	Running  bool            `json:"running"`
	Status   engine.Status   `json:"status,omitempty"`
	State    string          `json:"state"`
	Postings int             `json:"postings"`
	Summary  *engine.Summary `json:"summary,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Controller runs the engine on its own goroutine. It learns about progress
// only through observer callbacks.
type Controller struct {
	base      context.Context
	launch    Launcher
	observers []engine.Observer
	logger    *zap.SugaredLogger

	mu       sync.Mutex
	eng      *engine.Engine
	cancel   context.CancelFunc
	done     chan struct{}
	running  bool
	status   engine.Status
	snapshot *corpus.Corpus
	summary  *engine.Summary
	err      error
}

// New creates a controller whose runs live until base is cancelled or they
// finish. Extra observers receive every notification after the controller.
func New(base context.Context, launch Launcher, logger *zap.SugaredLogger, observers ...engine.Observer) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{
		base:      base,
		launch:    launch,
		observers: observers,
		logger:    logger,
		snapshot:  corpus.New(),
	}
}

// Start launches a run. It fails when one is already in progress or the
// request is invalid.
func (c *Controller) Start(req engine.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(c.base)
	eng, session, err := c.launch(ctx, runObserver{c})
	if err != nil {
		cancel()
		return fmt.Errorf("launch run: %w", err)
	}

	c.eng = eng
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	c.status = ""
	c.snapshot = corpus.New()
	c.summary = nil
	c.err = nil

	go c.run(ctx, eng, session, req, c.done)
	return nil
}

func (c *Controller) run(ctx context.Context, eng *engine.Engine, session browser.Session, req engine.Request, done chan struct{}) {
	defer close(done)

	summary, err := eng.Run(ctx, session, req)
	if err != nil {
		c.logger.Errorf("❌ Run failed: %v", err)
	}

	c.mu.Lock()
	c.cancel()
	c.running = false
	c.summary = summary
	c.err = err
	c.mu.Unlock()
}

// Stop asks the current run to end at its next checkpoint.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	c.eng.Stop()
	return nil
}

// Next asks the current run to move to its next search term.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	c.eng.Next()
	return nil
}

// Snapshot returns a private copy of the latest corpus.
func (c *Controller) Snapshot() *corpus.Corpus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.Snapshot()
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Running:  c.running,
		Status:   c.status,
		State:    engine.StateIdle.String(),
		Postings: c.snapshot.Len(),
		Summary:  c.summary,
	}
	if c.eng != nil {
		st.State = c.eng.State().String()
	}
	if c.summary != nil {
		st.Postings = c.summary.Postings
	}
	if c.err != nil {
		st.Error = c.err.Error()
	}
	return st
}

// Wait blocks until the current run, if any, has finished and returns its
// outcome.
func (c *Controller) Wait() (*engine.Summary, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary, c.err
}

// runObserver records progress on the controller, then forwards it.
type runObserver struct {
	c *Controller
}

func (o runObserver) OnStatus(status engine.Status) {
	o.c.mu.Lock()
	o.c.status = status
	o.c.mu.Unlock()
	for _, obs := range o.c.observers {
		obs.OnStatus(status)
	}
}

func (o runObserver) OnSnapshot(snapshot *corpus.Corpus) {
	o.c.mu.Lock()
	o.c.snapshot = snapshot
	o.c.mu.Unlock()
	for _, obs := range o.c.observers {
		obs.OnSnapshot(snapshot)
	}
}

func (o runObserver) OnFinished(summary engine.Summary) {
	for _, obs := range o.c.observers {
		obs.OnFinished(summary)
	}
}
