// Package dedup remembers posting URLs harvested by earlier runs.
package dedup

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Retention is how long a harvested URL stays in the cache.
const Retention = 30 * 24 * time.Hour

type seenEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// JobCache is a file-backed set of seen posting URLs.
type JobCache struct {
	mu       sync.Mutex
	filePath string
	seen     map[string]int64
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// NewJobCache creates or loads the cache in cacheDir.
func NewJobCache(cacheDir string, logger *zap.SugaredLogger) *JobCache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.Warnf("⚠️ Failed to create cache directory: %v", err)
	}
	jc := &JobCache{
		filePath: filepath.Join(cacheDir, "seen_jobs.json"),
		seen:     make(map[string]int64),
		now:      time.Now,
		logger:   logger,
	}
	jc.load()
	return jc
}

// IsSeen reports whether url was harvested by an earlier run.
func (jc *JobCache) IsSeen(url string) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	_, exists := jc.seen[url]
	return exists
}

// Add marks urls as seen and saves the cache when anything changed.
func (jc *JobCache) Add(urls []string) error {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	now := jc.now().UnixMilli()
	changed := false
	for _, url := range urls {
		if _, exists := jc.seen[url]; !exists {
			jc.seen[url] = now
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return jc.save()
}

func (jc *JobCache) Len() int {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return len(jc.seen)
}

// load reads the cache from disk, dropping entries older than Retention.
func (jc *JobCache) load() {
	data, err := os.ReadFile(jc.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			jc.logger.Warnf("⚠️ Failed to read %s: %v", jc.filePath, err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		jc.logger.Warnf("⚠️ Failed to parse %s: %v", jc.filePath, err)
		return
	}

	cutoff := jc.now().Add(-Retention).UnixMilli()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			jc.seen[e.URL] = e.Timestamp
			loaded++
		}
	}
	jc.logger.Infof("📋 Loaded %d previously seen postings (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the cache through a temp file and rename. Caller holds mu.
func (jc *JobCache) save() error {
	entries := make([]seenEntry, 0, len(jc.seen))
	for url, ts := range jc.seen {
		entries = append(entries, seenEntry{URL: url, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := jc.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, jc.filePath); err != nil {
		return err
	}
	jc.logger.Debugf("💾 Saved %d seen postings to cache", len(entries))
	return nil
}
