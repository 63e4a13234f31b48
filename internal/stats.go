package internal

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Stats holds named counters for one component, plus the time it started.
type Stats struct {
	startedAt time.Time

	mu     sync.Mutex
	counts map[string]int64
}

// NewStats returns Stats with each of keys present and zero, so they show up
// in Bytes even if never incremented.
func NewStats(keys ...string) *Stats {
	s := &Stats{
		startedAt: time.Now(),
		counts:    make(map[string]int64, len(keys)),
	}
	for _, k := range keys {
		s.counts[k] = 0
	}
	return s
}

// Add adds val to the counter for key.
func (s *Stats) Add(key string, val int64) {
	s.mu.Lock()
	s.counts[key] += val
	s.mu.Unlock()
}

// Incr adds one to the counter for key.
func (s *Stats) Incr(key string) {
	s.Add(key, 1)
}

// Get returns the current value of a counter.
func (s *Stats) Get(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

// Uptime returns the time elapsed since the stats were created.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// Bytes returns the counters as "key: value" pairs sorted by key, followed
// by the uptime.
func (s *Stats) Bytes() []byte {
	s.mu.Lock()
	keys := make([]string, 0, len(s.counts))
	for k := range s.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(strconv.FormatInt(s.counts[k], 10))
		sb.WriteString(", ")
	}
	s.mu.Unlock()

	sb.WriteString("uptime: ")
	sb.WriteString(s.Uptime().Round(time.Millisecond).String())
	return []byte(sb.String())
}
