// Package engine runs the crawl loop: search, collect posting links, visit
// and classify each posting, paginate, and persist the corpus as it grows.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go-job-harvester/internal/browser"
	"go-job-harvester/internal/classifier"
	"go-job-harvester/internal/corpus"
	"go-job-harvester/internal/fetcher"
	"go-job-harvester/internal/scraper"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request is what the control surface asks for.
type Request struct {
	Terms    []string `json:"terms" validate:"required,min=1,unique,dive,required"`
	Location string   `json:"location"`
	// Target bounds the corpus size for the whole run.
	Target int `json:"target" validate:"gt=0"`
}

var validate = validator.New()

// Validate checks terms are present, non-empty and distinct, and the
// target is positive.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// Seen filters links harvested by earlier runs.
type Seen interface {
	IsSeen(url string) bool
	Add(urls []string) error
}

// Options wires an Engine. Site, Fetcher and Store are required.
type Options struct {
	Site     scraper.Site
	Fetcher  fetcher.PostingFetcher
	Classify func(text string) map[string]string
	Store    corpus.Store
	Observer Observer
	Seen     Seen
	Logger   *zap.SugaredLogger

	// Attempts and RetryDelay bound how hard one posting is retried.
	Attempts   int
	RetryDelay time.Duration

	// Initial preloads the corpus, e.g. from a previous output file.
	Initial *corpus.Corpus
	// RunID tags the run; a random one is generated when empty.
	RunID string
}

// Engine runs a single crawl. Stop and Next may be called from any
// goroutine; they are observed at checkpoints: before each posting is opened
// and at the top of each pagination iteration.
type Engine struct {
	site     scraper.Site
	fetch    fetcher.PostingFetcher
	classify func(string) map[string]string
	store    corpus.Store
	observer Observer
	seen     Seen
	logger   *zap.SugaredLogger
	initial  *corpus.Corpus
	runID    string

	stop  atomic.Bool
	next  atomic.Bool
	state atomic.Int32
}

func New(opts Options) (*Engine, error) {
	if err := opts.Site.Validate(); err != nil {
		return nil, err
	}
	if opts.Fetcher == nil {
		return nil, errors.New("engine: fetcher is required")
	}
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if opts.Classify == nil {
		opts.Classify = classifier.Classify
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &Engine{
		site: opts.Site,
		fetch: fetcher.Retrier{
			Fetcher:  opts.Fetcher,
			Attempts: opts.Attempts,
			Delay:    opts.RetryDelay,
		},
		classify: opts.Classify,
		store:    opts.Store,
		observer: opts.Observer,
		seen:     opts.Seen,
		logger:   opts.Logger,
		initial:  opts.Initial,
		runID:    opts.RunID,
	}, nil
}

// Stop asks the run to end at the next checkpoint.
func (e *Engine) Stop() { e.stop.Store(true) }

// Next asks the run to abandon the current term at the next checkpoint.
func (e *Engine) Next() { e.next.Store(true) }

func (e *Engine) State() State { return State(e.state.Load()) }

func (e *Engine) setState(s State) { e.state.Store(int32(s)) }

func (e *Engine) stopped(ctx context.Context) bool {
	return e.stop.Load() || ctx.Err() != nil
}

// Run crawls every term in order until the target is reached, the terms
// run out, or Stop is called. The session is closed and the corpus is
// flushed before Run returns, whatever the outcome.
func (e *Engine) Run(ctx context.Context, session browser.Session, req Request) (summary *Summary, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := corpus.New()
	if e.initial != nil {
		c = e.initial.Snapshot()
	}
	preloaded := c.Len()

	runID := e.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	sum := &Summary{RunID: runID, Started: time.Now()}
	log := e.logger.With("run_id", sum.RunID)
	log.Infof("🚀 Run started: %d term(s), location %q, target %d", len(req.Terms), req.Location, req.Target)
	e.observer.OnStatus(StatusStarted)

	defer func() {
		e.setState(StateFinished)
		if cerr := session.Close(); cerr != nil {
			log.Warnf("⚠️ Failed to close browser session: %v", cerr)
		}
		if ferr := e.flush(context.WithoutCancel(ctx), c); ferr != nil {
			err = errors.Join(err, ferr)
		}

		sum.Postings = c.Len()
		sum.Added = c.Len() - preloaded
		sum.StoppedEarly = e.stopped(ctx)
		sum.Finished = time.Now()
		summary = sum

		if err != nil {
			log.Errorf("❌ Run aborted after %d posting(s): %v", sum.Postings, err)
		} else {
			log.Infof("🏁 Run finished: %d posting(s), %d skipped", sum.Postings, sum.Skipped)
		}
		e.observer.OnStatus(StatusFinished)
		e.observer.OnFinished(*sum)
	}()

	if c.Len() >= req.Target {
		sum.TargetReached = true
		return sum, nil
	}

	stopAnnounced := false
	announceStop := func() {
		if !stopAnnounced {
			stopAnnounced = true
			log.Infof("🛑 Stop requested")
			e.observer.OnStatus(StatusStopped)
		}
	}

	for _, term := range req.Terms {
		if e.stopped(ctx) {
			announceStop()
			break
		}
		if err := e.runTerm(ctx, log, session, c, req, term, sum); err != nil {
			if ctx.Err() == nil {
				return sum, err
			}
			// Cancelled mid-navigation: the driver error is the cancellation.
			log.Debugf("term %q interrupted: %v", term, err)
			break
		}
		if sum.TargetReached {
			break
		}
		if e.next.Swap(false) {
			log.Infof("⏭️ Moving to next search term")
			e.observer.OnStatus(StatusNextTerm)
		}
	}
	if e.stopped(ctx) {
		announceStop()
	}
	return sum, nil
}

func (e *Engine) runTerm(ctx context.Context, log *zap.SugaredLogger, session browser.Session, c *corpus.Corpus, req Request, term string, sum *Summary) error {
	e.setState(StateRunningSearchTerm)
	sum.TermsSearched++

	searchURL := e.site.QueryURL(term, req.Location)
	log.Infof("🔍 Searching %s: %q in %q", e.site.Name, term, req.Location)
	if err := session.Navigate(ctx, searchURL); err != nil {
		return fmt.Errorf("search %q: %w", term, err)
	}
	visited := map[string]bool{searchURL: true}

	for {
		if e.stopped(ctx) || e.next.Load() {
			return nil
		}

		e.setState(StateCollectingLinks)
		links, err := e.collect(ctx, log, session, c)
		if err != nil {
			return fmt.Errorf("collect links for %q: %w", term, err)
		}
		sum.Pages++
		log.Infof("📦 Found %d new posting link(s) for %q", len(links), term)

		e.setState(StateVisitingPosting)
		for _, link := range links {
			if e.stopped(ctx) || e.next.Load() || c.Len() >= req.Target {
				break
			}
			e.visit(ctx, log, session, c, link, sum)
		}

		if err := e.flush(ctx, c); err != nil {
			log.Warnf("⚠️ Failed to persist corpus: %v", err)
		}

		if c.Len() >= req.Target {
			sum.TargetReached = true
			log.Infof("🎯 Target of %d posting(s) reached", req.Target)
			return nil
		}

		if e.stopped(ctx) || e.next.Load() {
			return nil
		}

		e.setState(StatePaginating)
		nextURL, ok, err := e.nextPage(ctx, session)
		if err != nil {
			return fmt.Errorf("paginate %q: %w", term, err)
		}
		if !ok || visited[nextURL] {
			log.Infof("📄 No more result pages for %q", term)
			return nil
		}
		visited[nextURL] = true
		if err := session.Navigate(ctx, nextURL); err != nil {
			return fmt.Errorf("next page for %q: %w", term, err)
		}
	}
}

// collect returns posting links on the current page that are not in the
// corpus yet, in page order, each once. Anchors that fail to read are skipped.
func (e *Engine) collect(ctx context.Context, log *zap.SugaredLogger, session browser.Session, c *corpus.Corpus) ([]string, error) {
	anchors, err := session.Anchors(ctx)
	if err != nil {
		return nil, err
	}

	var links []string
	onPage := make(map[string]bool)
	for _, a := range anchors {
		href, err := a.Href()
		if err != nil {
			log.Debugf("skipping unreadable anchor: %v", err)
			continue
		}
		if !e.site.IsPosting(href) || onPage[href] || c.Has(href) {
			continue
		}
		if e.seen != nil && e.seen.IsSeen(href) {
			continue
		}
		onPage[href] = true
		links = append(links, href)
	}
	return links, nil
}

func (e *Engine) visit(ctx context.Context, log *zap.SugaredLogger, session browser.Session, c *corpus.Corpus, link string, sum *Summary) {
	text, err := e.fetch.Fetch(ctx, session, link)
	if err != nil {
		sum.Skipped++
		log.Warnf("⚠️ Skipping posting: %v", err)
		return
	}

	c.Add(link, corpus.Record(e.classify(text)))
	log.Debugf("✅ Stored posting %s (%d total)", link, c.Len())
	e.observer.OnSnapshot(c.Snapshot())
}

// nextPage resolves the next-page control. A missing or unreadable control
// means the term has no more pages.
func (e *Engine) nextPage(ctx context.Context, session browser.Session) (string, bool, error) {
	if e.site.NextPageSelector == "" {
		return "", false, nil
	}
	a, err := session.Find(ctx, e.site.NextPageSelector)
	if errors.Is(err, browser.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	href, err := a.Href()
	if err != nil || href == "" {
		return "", false, nil
	}
	return href, true, nil
}

func (e *Engine) flush(ctx context.Context, c *corpus.Corpus) error {
	if err := e.store.Save(ctx, c); err != nil {
		return fmt.Errorf("persist corpus: %w", err)
	}
	if e.seen != nil {
		if err := e.seen.Add(c.URLs()); err != nil {
			e.logger.Warnf("⚠️ Failed to update seen cache: %v", err)
		}
	}
	return nil
}
