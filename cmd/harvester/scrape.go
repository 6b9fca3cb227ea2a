package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"go-job-harvester/internal/app"
	"go-job-harvester/internal/config"
	"go-job-harvester/internal/control"
	"go-job-harvester/internal/engine"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type scrapeFlags struct {
	terms     string
	location  string
	target    int
	output    string
	driver    string
	baseURL   string
	headless  bool
	resume    bool
	postings  bool
	cachePath string
}

func newScrapeCmd(a *cli) *cobra.Command {
	f := &scrapeFlags{}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one crawl in the foreground",
		Long: `Searches each term in order, visits every posting link, classifies the
posting text and rewrites the output file after every results page.

Ctrl-C (SIGINT) or SIGTERM stops at the next checkpoint and still writes the
output file. On unix, SIGUSR1 skips to the next search term.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.apply(cmd, a.cfg); err != nil {
				return err
			}
			return runScrape(cmd.Context(), a, f.resume, f.postings, cmd.OutOrStdout())
		},
	}

	f.bind(cmd)
	return cmd
}

func (f *scrapeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.terms, "terms", "", "comma-separated search terms")
	cmd.Flags().StringVar(&f.location, "location", "", "search location")
	cmd.Flags().IntVar(&f.target, "target", 0, "stop once the corpus holds this many postings")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "corpus JSON file")
	cmd.Flags().StringVar(&f.driver, "driver", "", "browser driver: playwright or static")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "override the listings site base URL")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run the browser headless")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "preload the existing output file and skip its postings")
	cmd.Flags().BoolVar(&f.postings, "notify-postings", false, "push every stored posting to Telegram")
	cmd.Flags().StringVar(&f.cachePath, "cache", "", "directory of the cross-run seen cache")
}

// apply copies explicitly set flags over the loaded config.
func (f *scrapeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("terms") {
		cfg.Terms = config.ParseTerms(f.terms)
	}
	if flags.Changed("location") {
		cfg.Location = f.location
	}
	if flags.Changed("target") {
		cfg.Target = f.target
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("driver") {
		cfg.Driver = f.driver
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if flags.Changed("headless") {
		cfg.Headless = f.headless
	}
	if flags.Changed("cache") {
		cfg.CachePath = f.cachePath
	}
	return cfg.Validate()
}

func runScrape(ctx context.Context, a *cli, resume, notifyPostings bool, out io.Writer) error {
	log := a.logger
	cfg := a.cfg

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer h.Close()
	h.Resume = resume
	h.NotifyPostings(notifyPostings)

	ctrl := control.New(ctx, h.Launch, log, h.Observer())
	req := engine.Request{Terms: cfg.Terms, Location: cfg.Location, Target: cfg.Target}
	log.Infof("🔧 Config loaded. Terms: %v", cfg.Terms)
	if err := ctrl.Start(req); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, append([]os.Signal{os.Interrupt, syscall.SIGTERM}, nextTermSignals...)...)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	go func() {
		stopping := false
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				switch {
				case slices.Contains(nextTermSignals, sig):
					log.Infof("⏭️ %s received, moving to next term", sig)
					_ = ctrl.Next()
				case stopping:
					log.Warnf("🛑 %s received again, aborting", sig)
					cancel()
				default:
					stopping = true
					log.Infof("🛑 %s received, stopping after the current posting", sig)
					_ = ctrl.Stop()
				}
			}
		}
	}()

	summary, runErr := ctrl.Wait()
	close(done)

	if summary != nil {
		printSummary(out, cfg, summary)
	}
	if runErr != nil {
		h.ReportError(runErr)
		return runErr
	}
	return nil
}

func printSummary(out io.Writer, cfg *config.Config, s *engine.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Harvest summary")

	outcome := "terms exhausted"
	switch {
	case s.TargetReached:
		outcome = "target reached"
	case s.StoppedEarly:
		outcome = "stopped early"
	}

	t.AppendRows([]table.Row{
		{"Run", s.RunID},
		{"Terms", strings.Join(cfg.Terms, ", ")},
		{"Location", cfg.Location},
		{"Postings", fmt.Sprintf("%d / %d", s.Postings, cfg.Target)},
		{"New this run", s.Added},
		{"Skipped", s.Skipped},
		{"Terms searched", s.TermsSearched},
		{"Result pages", s.Pages},
		{"Outcome", outcome},
		{"Duration", s.Finished.Sub(s.Started).Round(time.Second)},
		{"Output", cfg.Output},
	})
	t.Render()
}
