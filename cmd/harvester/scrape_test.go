package main

import (
	"bytes"
	"testing"
	"time"

	"go-job-harvester/internal/config"
	"go-job-harvester/internal/engine"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeFlags_Apply(t *testing.T) {
	cfg := config.Default()
	f := &scrapeFlags{}
	cmd := &cobra.Command{Use: "scrape"}
	f.bind(cmd)

	require.NoError(t, cmd.ParseFlags([]string{
		"--terms", "qa, tester,",
		"--target", "7",
		"--driver", "static",
		"-o", "out.json",
		"--headless=false",
	}))
	require.NoError(t, f.apply(cmd, cfg))

	assert.Equal(t, []string{"qa", "tester"}, cfg.Terms)
	assert.Equal(t, 7, cfg.Target)
	assert.Equal(t, "static", cfg.Driver)
	assert.Equal(t, "out.json", cfg.Output)
	assert.False(t, cfg.Headless)
	assert.Equal(t, config.DefaultLocation, cfg.Location)
}

func TestScrapeFlags_ApplyValidates(t *testing.T) {
	cfg := config.Default()
	f := &scrapeFlags{}
	cmd := &cobra.Command{Use: "scrape"}
	f.bind(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"--driver", "selenium"}))
	assert.Error(t, f.apply(cmd, cfg))
}

func TestPrintSummary(t *testing.T) {
	cfg := config.Default()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var out bytes.Buffer

	printSummary(&out, cfg, &engine.Summary{
		RunID:         "run-1",
		Postings:      100,
		Added:         40,
		TargetReached: true,
		Started:       start,
		Finished:      start.Add(2 * time.Minute),
	})

	got := out.String()
	assert.Contains(t, got, "Harvest summary")
	assert.Contains(t, got, "run-1")
	assert.Contains(t, got, "100 / 100")
	assert.Contains(t, got, "target reached")
	assert.Contains(t, got, "2m0s")
}
