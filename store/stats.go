package store

import (
	"encoding/json"
	"sort"
	"sync"
)

// Stats is a threadsafe bag of named counters, shared across the stages
// of a run. Keys are slash-separated, eg "elasticsearch/indexed_items".
type Stats struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewStats() *Stats {
	return &Stats{counters: map[string]int64{}}
}

func (s *Stats) Inc(key string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] += n
}

func (s *Stats) Set(key string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = n
}

func (s *Stats) Get(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key]
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// Keys returns all counter names, sorted.
func (s *Stats) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.counters))
	for k := range s.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSON serializes the counters for the scrape ledger's stats column.
func (s *Stats) JSON() string {
	b, err := json.Marshal(s.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(b)
}
