package stats

import (
	"strings"
	"testing"
	"time"
)

func TestHistogramQuantile(t *testing.T) {
	h := NewHistogram()
	for i := 1; i <= 100; i++ {
		h.Observe(time.Duration(i) * time.Millisecond)
	}

	if n := h.Count(); n != 100 {
		t.Fatalf("expected 100 observations but got %d", n)
	}
	if q := h.Quantile(0.0); q != time.Millisecond {
		t.Fatalf("expected min of 1ms but got %s", q)
	}
	if q := h.Quantile(1.0); q != 100*time.Millisecond {
		t.Fatalf("expected max of 100ms but got %s", q)
	}
	if q := h.Quantile(0.5); q < 45*time.Millisecond || q > 55*time.Millisecond {
		t.Fatalf("expected median near 50ms but got %s", q)
	}

	h.Reset()
	if q := h.Quantile(0.5); q != 0 {
		t.Fatalf("expected empty histogram to return 0 but got %s", q)
	}
}

func TestHistogramOutOfOrder(t *testing.T) {
	h := NewHistogram()
	for _, d := range []time.Duration{30, 10, 20} {
		h.Observe(d)
	}
	if q := h.Quantile(0.0); q != 10 {
		t.Fatalf("expected min of 10ns but got %s", q)
	}
	if q := h.Quantile(1.0); q != 30 {
		t.Fatalf("expected max of 30ns but got %s", q)
	}
}

func TestHistogramMergesBins(t *testing.T) {
	h := NewHistogram()
	for i := 0; i < maxBins*3; i++ {
		h.Observe(time.Duration(i))
	}
	if len(h.bins) > maxBins {
		t.Fatalf("expected at most %d bins but got %d", maxBins, len(h.bins))
	}
	if !strings.Contains(h.String(), "p99: ") {
		t.Fatalf("expected quantiles in string output but got %q", h.String())
	}
}

func TestPrettyDuration(t *testing.T) {
	testCases := map[time.Duration]string{
		500:                     "500ns",
		1500 * time.Microsecond: "1.50ms",
		2 * time.Second:         "2.00s",
		90 * time.Second:        "1.50m",
	}
	for d, expected := range testCases {
		if s := PrettyDuration(d); s != expected {
			t.Fatalf("expected %s to format as %q but got %q", d, expected, s)
		}
	}
}
