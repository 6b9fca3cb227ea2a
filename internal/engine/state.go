package engine

import (
	"time"

	"go-job-harvester/internal/corpus"
)

// State is where the crawl loop currently is.
type State int32

const (
	StateIdle State = iota
	StateRunningSearchTerm
	StateCollectingLinks
	StateVisitingPosting
	StatePaginating
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunningSearchTerm:
		return "running-search-term"
	case StateCollectingLinks:
		return "collecting-links"
	case StateVisitingPosting:
		return "visiting-posting"
	case StatePaginating:
		return "paginating"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Status is the coarse run state reported to the control surface.
type Status string

const (
	StatusStarted  Status = "started"
	StatusStopped  Status = "stopped"
	StatusNextTerm Status = "moving to next term"
	StatusFinished Status = "finished"
)

// Summary describes a finished run.
type Summary struct {
	RunID         string    `json:"run_id"`
	Postings      int       `json:"postings"`
	Added         int       `json:"added"`
	Skipped       int       `json:"skipped"`
	TermsSearched int       `json:"terms_searched"`
	Pages         int       `json:"pages"`
	StoppedEarly  bool      `json:"stopped_early"`
	TargetReached bool      `json:"target_reached"`
	Started       time.Time `json:"started"`
	Finished      time.Time `json:"finished"`
}

// Observer receives one-way notifications from a run. Calls come from the
// engine goroutine, in order; implementations must not block for long.
type Observer interface {
	OnStatus(status Status)
	// OnSnapshot gets a private copy of the whole corpus after each stored posting.
	OnSnapshot(snapshot *corpus.Corpus)
	// OnFinished is called exactly once per run.
	OnFinished(summary Summary)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnStatus(Status)           {}
func (NopObserver) OnSnapshot(*corpus.Corpus) {}
func (NopObserver) OnFinished(Summary)        {}
