package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Store persists complete corpus snapshots.
type Store interface {
	Save(ctx context.Context, c *Corpus) error
}

// FileStore overwrites a JSON file with each snapshot. Writes go to a temp
// file in the same directory and are renamed into place, so the target is
// always a complete JSON document.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Save(_ context.Context, c *Corpus) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.Path, err)
	}
	committed = true
	return nil
}

// Load reads a corpus file. A missing file is an empty corpus.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// FromMap builds a corpus from a plain map, adding URLs in sorted order.
func FromMap(m map[string]Record) *Corpus {
	urls := make([]string, 0, len(m))
	for url := range m {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	c := New()
	for _, url := range urls {
		rec := m[url]
		if rec == nil {
			rec = Record{}
		}
		c.Add(url, rec)
	}
	return c
}

// MultiStore saves to every store in order. All stores run even when one
// fails; the first error is returned.
type MultiStore []Store

func (m MultiStore) Save(ctx context.Context, c *Corpus) error {
	var first error
	for _, s := range m {
		if err := s.Save(ctx, c); err != nil && first == nil {
			first = err
		}
	}
	return first
}
