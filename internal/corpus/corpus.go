// Package corpus holds the harvested postings of a run and their JSON file form.
package corpus

import (
	"encoding/json"
	"fmt"
)

// Record is one posting's extracted fields, keyed by category name. The
// optional "raw" key carries the full text when some category found nothing.
type Record map[string]string

// Clone returns an independent copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Corpus maps posting URL to its Record. A URL is stored at most once and
// its record is never replaced. Not safe for concurrent use; the engine owns
// it and hands out Snapshots.
type Corpus struct {
	records map[string]Record
	order   []string
}

func New() *Corpus {
	return &Corpus{records: make(map[string]Record)}
}

// Has reports whether url is already in the corpus.
func (c *Corpus) Has(url string) bool {
	_, ok := c.records[url]
	return ok
}

// Add stores rec under url. It returns false, leaving the corpus unchanged,
// when url is already present.
func (c *Corpus) Add(url string, rec Record) bool {
	if c.Has(url) {
		return false
	}
	c.records[url] = rec.Clone()
	c.order = append(c.order, url)
	return true
}

func (c *Corpus) Len() int {
	return len(c.order)
}

// Get returns a copy of the record stored under url.
func (c *Corpus) Get(url string) (Record, bool) {
	rec, ok := c.records[url]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// URLs returns the stored URLs in the order they were added.
func (c *Corpus) URLs() []string {
	return append([]string(nil), c.order...)
}

// Snapshot returns a deep copy that shares nothing with c.
func (c *Corpus) Snapshot() *Corpus {
	out := &Corpus{
		records: make(map[string]Record, len(c.records)),
		order:   append([]string(nil), c.order...),
	}
	for url, rec := range c.records {
		out.records[url] = rec.Clone()
	}
	return out
}

// MarshalJSON writes the corpus as a JSON object of URL -> field map.
func (c *Corpus) MarshalJSON() ([]byte, error) {
	if c == nil || c.records == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.records)
}

// UnmarshalJSON reads a JSON object of URL -> field map. Keys are taken in
// sorted order since JSON objects carry no insertion order.
func (c *Corpus) UnmarshalJSON(data []byte) error {
	var m map[string]Record
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode corpus: %w", err)
	}
	fresh := FromMap(m)
	*c = *fresh
	return nil
}
