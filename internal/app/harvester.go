// Package app wires configuration into the long-lived resources a harvester
// process needs and hands out one engine per run.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-job-harvester/internal/browser"
	"go-job-harvester/internal/config"
	"go-job-harvester/internal/corpus"
	"go-job-harvester/internal/database"
	"go-job-harvester/internal/dedup"
	"go-job-harvester/internal/engine"
	"go-job-harvester/internal/fetcher"
	"go-job-harvester/internal/reporter"
	"go-job-harvester/internal/scraper"
	"go-job-harvester/internal/scraper/indeed"
	"go-job-harvester/internal/telegram"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Harvester holds the long-lived resources shared by every run: the browser
// driver, the database pool, the seen cache and the Telegram bot.
type Harvester struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	site   scraper.Site

	pw      *browser.PlaywrightManager
	cookies []playwright.OptionalCookie
	repo    *database.Repository
	seen    *dedup.JobCache
	tg      *reporter.TelegramReporter

	// Resume preloads the output file into each run.
	Resume bool
}

func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Harvester, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	site, err := siteFor(cfg)
	if err != nil {
		return nil, err
	}
	h := &Harvester{cfg: cfg, logger: logger, site: site}

	if cfg.Driver == "playwright" {
		h.pw, err = browser.NewPlaywright(ctx, browser.Options{
			Headless:      cfg.Headless,
			Humanize:      cfg.Humanize,
			ScreenshotDir: cfg.ScreenshotDir,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init Playwright: %w", err)
		}
		if cfg.CookiesPath != "" {
			h.cookies = browser.LoadCookiesDir(cfg.CookiesPath, logger)
		}
		logger.Infof("✅ Browser initialized successfully!")
	}

	if cfg.DatabaseURL != "" {
		h.repo, err = database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			h.Close()
			return nil, err
		}
		if err := h.repo.EnsureSchema(ctx); err != nil {
			h.Close()
			return nil, err
		}
		if n, err := h.repo.Count(ctx); err == nil {
			logger.Infof("🗄️ Postgres mirror enabled (%d posting(s) stored)", n)
		}
	}

	if cfg.CachePath != "" {
		h.seen = dedup.NewJobCache(cfg.CachePath, logger)
	}

	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to init Telegram Bot: %w", err)
		}
		h.tg = reporter.NewTelegramReporter(bot, logger)
		logger.Infof("🤖 Telegram Bot initialized.")
	}

	return h, nil
}

func siteFor(cfg *config.Config) (scraper.Site, error) {
	switch cfg.Site {
	case indeed.Name:
		return indeed.New(cfg.BaseURL), nil
	default:
		return scraper.Site{}, fmt.Errorf("unsupported site %q", cfg.Site)
	}
}

// Observer fans run notifications out to the log and, when enabled, Telegram.
func (h *Harvester) Observer() engine.Observer {
	obs := reporter.Multi{reporter.NewLogReporter(h.logger)}
	if h.tg != nil {
		obs = append(obs, h.tg)
	}
	return obs
}

// Launch builds one engine and browser session. It matches control.Launcher.
func (h *Harvester) Launch(ctx context.Context, observer engine.Observer) (*engine.Engine, browser.Session, error) {
	runID := uuid.NewString()

	stores := corpus.MultiStore{corpus.NewFileStore(h.cfg.Output)}
	if h.repo != nil {
		stores = append(stores, h.repo.ForRun(runID))
	}

	var initial *corpus.Corpus
	if h.Resume {
		c, err := corpus.Load(h.cfg.Output)
		if err != nil {
			return nil, nil, fmt.Errorf("resume from %s: %w", h.cfg.Output, err)
		}
		h.logger.Infof("📂 Resuming with %d posting(s) from %s", c.Len(), h.cfg.Output)
		initial = c
	}

	opts := engine.Options{
		Site:       h.site,
		Fetcher:    fetcher.New(h.site.ReadySelector, h.site.ContentSelector, h.cfg.FetchTimeout, h.logger),
		Store:      stores,
		Observer:   observer,
		Logger:     h.logger,
		Attempts:   h.cfg.FetchAttempts,
		RetryDelay: h.cfg.RetryDelay,
		Initial:    initial,
		RunID:      runID,
	}
	if h.seen != nil {
		opts.Seen = h.seen
	}
	eng, err := engine.New(opts)
	if err != nil {
		return nil, nil, err
	}

	session, err := h.newSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	return eng, session, nil
}

func (h *Harvester) newSession(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.pw == nil {
		return browser.NewStaticSession(&http.Client{Timeout: h.cfg.FetchTimeout + 20*time.Second}, h.logger), nil
	}
	session, err := h.pw.NewSession(h.cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}
	return session, nil
}

// NotifyPostings makes the Telegram reporter push every stored posting.
func (h *Harvester) NotifyPostings(on bool) {
	if h.tg != nil {
		h.tg.Postings = on
	}
}

// ReportError forwards a fatal run error to Telegram when enabled.
func (h *Harvester) ReportError(err error) {
	if h.tg != nil && err != nil {
		h.tg.ReportError(err)
	}
}

func (h *Harvester) Close() {
	if h.tg != nil {
		h.tg.Close()
	}
	var errs []error
	if h.pw != nil {
		errs = append(errs, h.pw.Close())
	}
	if h.repo != nil {
		h.repo.Close()
	}
	if err := errors.Join(errs...); err != nil {
		h.logger.Warnf("⚠️ Failed to shut down cleanly: %v", err)
	}
}
