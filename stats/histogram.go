package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// streaming histogram after zserge/metric

const maxBins = 100

type bin struct {
	d     float64
	count float64
}

// Histogram keeps an approximate distribution of durations in at most
// maxBins bins. Neighbouring bins are merged as new values arrive.
type Histogram struct {
	mu    sync.Mutex
	bins  []bin
	total uint64
}

func NewHistogram() *Histogram {
	return &Histogram{}
}

func (h *Histogram) String() string {
	return fmt.Sprintf("n: %d, min: %s, p50: %s, p90: %s, p99: %s, max: %s",
		h.Count(),
		PrettyDuration(h.Quantile(0.0)),
		PrettyDuration(h.Quantile(0.5)),
		PrettyDuration(h.Quantile(0.9)),
		PrettyDuration(h.Quantile(0.99)),
		PrettyDuration(h.Quantile(1.0)))
}

// Reset empties the histogram.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bins = nil
	h.total = 0
}

// Count returns the number of observed durations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Observe adds one duration.
func (h *Histogram) Observe(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := float64(d)
	h.total++
	i := sort.Search(len(h.bins), func(i int) bool { return h.bins[i].d > v })
	h.bins = append(h.bins, bin{})
	copy(h.bins[i+1:], h.bins[i:])
	h.bins[i] = bin{d: v, count: 1}

	for len(h.bins) > maxBins {
		h.mergeClosest()
	}
}

// mergeClosest replaces the two nearest bins with their weighted mean.
func (h *Histogram) mergeClosest() {
	at := 1
	gap := h.bins[1].d - h.bins[0].d
	for j := 2; j < len(h.bins); j++ {
		if g := h.bins[j].d - h.bins[j-1].d; g < gap {
			gap = g
			at = j
		}
	}

	lo, hi := h.bins[at-1], h.bins[at]
	count := lo.count + hi.count
	h.bins[at-1] = bin{d: (lo.d*lo.count + hi.d*hi.count) / count, count: count}
	h.bins = append(h.bins[:at], h.bins[at+1:]...)
}

// Quantile returns the approximate duration below which a fraction q of
// observations fall, or 0 if nothing has been observed.
func (h *Histogram) Quantile(q float64) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := q * float64(h.total)
	for _, b := range h.bins {
		remaining -= b.count
		if remaining <= 0 {
			return time.Duration(b.d)
		}
	}
	return 0
}
