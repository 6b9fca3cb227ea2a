// Package analyze feeds each harvested posting to a language model and
// writes the answers to a CSV file.
package analyze

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"go-job-harvester/internal/ai"
	"go-job-harvester/internal/corpus"

	"github.com/jedib0t/go-pretty/v6/progress"
	"go.uber.org/zap"
)

// Stats counts what a run did.
type Stats struct {
	Postings int
	Failed   int
}

type Analyzer struct {
	client ai.Client
	mode   Mode
	logger *zap.SugaredLogger

	// Progress, when set, receives a progress bar.
	Progress io.Writer
	// MaxTokens overrides the mode's token budget when positive.
	MaxTokens int
}

func New(client ai.Client, mode Mode, logger *zap.SugaredLogger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Analyzer{client: client, mode: mode, logger: logger}
}

// Run analyzes every posting in the corpus file, in sorted URL order, and
// writes one CSV row per posting after a header row. A model error skips
// the answers for that posting only.
func (a *Analyzer) Run(ctx context.Context, corpusPath, csvPath string) (Stats, error) {
	var stats Stats

	c, err := corpus.Load(corpusPath)
	if err != nil {
		return stats, err
	}
	urls := c.URLs()
	sort.Strings(urls)

	f, err := os.Create(csvPath)
	if err != nil {
		return stats, fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(a.mode.Header()); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	tracker, stop := a.startProgress(len(urls))
	defer stop()

	maxTokens := a.mode.MaxTokens
	if a.MaxTokens > 0 {
		maxTokens = a.MaxTokens
	}

	a.logger.Infof("🤖 Analyzing %d posting(s) in %s mode", len(urls), a.mode.Name)
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			w.Flush()
			return stats, err
		}

		rec, _ := c.Get(url)
		output, err := a.client.Complete(ctx, a.mode.Prompt(rec), maxTokens)
		var answers map[string]string
		if err != nil {
			stats.Failed++
			a.logger.Warnf("⚠️ Model failed for %s: %v", url, err)
		} else {
			answers = ParseAnswers(output)
			a.logger.Debugf("Generated output for %s: %s", url, output)
		}

		if err := w.Write(a.mode.Row(url, rec, answers, output)); err != nil {
			return stats, fmt.Errorf("write row for %s: %w", url, err)
		}
		w.Flush()
		stats.Postings++
		if tracker != nil {
			tracker.Increment(1)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return stats, fmt.Errorf("write %s: %w", csvPath, err)
	}
	if tracker != nil {
		tracker.MarkAsDone()
	}
	a.logger.Infof("✅ Wrote %d row(s) to %s (%d model failure(s))", stats.Postings, csvPath, stats.Failed)
	return stats, nil
}

func (a *Analyzer) startProgress(total int) (*progress.Tracker, func()) {
	if a.Progress == nil {
		return nil, func() {}
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(a.Progress)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(200 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true

	tracker := &progress.Tracker{Message: "Processing Jobs", Total: int64(total), Units: progress.UnitsDefault}
	pw.AppendTracker(tracker)
	go pw.Render()

	return tracker, func() {
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	}
}
