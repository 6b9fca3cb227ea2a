package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpus_AddNeverReplaces(t *testing.T) {
	c := New()
	assert.True(t, c.Add("https://x/a", Record{"job_type": "Full-time"}))
	assert.False(t, c.Add("https://x/a", Record{"job_type": "Contract"}))

	rec, ok := c.Get("https://x/a")
	require.True(t, ok)
	assert.Equal(t, "Full-time", rec["job_type"])
	assert.Equal(t, 1, c.Len())
}

func TestCorpus_KeepsDiscoveryOrder(t *testing.T) {
	c := New()
	for _, u := range []string{"c", "a", "b", "a"} {
		c.Add(u, Record{})
	}
	assert.Equal(t, []string{"c", "a", "b"}, c.URLs())
}

func TestCorpus_SnapshotIsIndependent(t *testing.T) {
	c := New()
	rec := Record{"salary": "$1"}
	c.Add("a", rec)
	rec["salary"] = "mutated by caller"

	snap := c.Snapshot()
	c.Add("b", Record{})

	got, _ := snap.Get("a")
	assert.Equal(t, "$1", got["salary"])
	assert.Equal(t, 1, snap.Len())
	assert.False(t, snap.Has("b"))

	got["salary"] = "changed copy"
	again, _ := c.Get("a")
	assert.Equal(t, "$1", again["salary"])
}

func TestCorpus_JSONShape(t *testing.T) {
	c := New()
	c.Add("https://x/a", Record{"job_title": "Tester", "raw": "text"})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"https://x/a":{"job_title":"Tester","raw":"text"}}`, string(data))

	empty, err := json.Marshal(New())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "job_posts.json")
	c := New()
	c.Add("https://x/a", Record{"job_type": "Full-time"})
	c.Add("https://x/b", Record{"raw": "whole posting"})

	require.NoError(t, NewFileStore(path).Save(context.Background(), c))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.URLs(), loaded.URLs())
	for _, url := range c.URLs() {
		want, _ := c.Get(url)
		got, ok := loaded.Get(url)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileStore_OverwritesWithLatestSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_posts.json")
	store := NewFileStore(path)
	c := New()
	c.Add("a", Record{})
	require.NoError(t, store.Save(context.Background(), c))
	c.Add("b", Record{})
	require.NoError(t, store.Save(context.Background(), c))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loaded.URLs())
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

type failingStore struct{ calls int }

func (f *failingStore) Save(context.Context, *Corpus) error {
	f.calls++
	return errors.New("disk full")
}

type countingStore struct{ calls int }

func (c *countingStore) Save(context.Context, *Corpus) error {
	c.calls++
	return nil
}

func TestMultiStore_RunsAllSinks(t *testing.T) {
	bad := &failingStore{}
	good := &countingStore{}

	err := MultiStore{bad, good}.Save(context.Background(), New())
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}
