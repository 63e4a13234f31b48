// Package stats summarizes how long records take to route.
package stats

import (
	"fmt"
	"time"
)

// PrettyDuration formats d with a unit suited to its size.
func PrettyDuration(d time.Duration) string {
	ns := float64(d)
	switch {
	case d > time.Minute:
		return fmt.Sprintf("%.2fm", ns/float64(time.Minute))
	case d > time.Second:
		return fmt.Sprintf("%.2fs", ns/float64(time.Second))
	case d > time.Millisecond:
		return fmt.Sprintf("%.2fms", ns/float64(time.Millisecond))
	case d > time.Microsecond:
		return fmt.Sprintf("%.2fμs", ns/float64(time.Microsecond))
	}
	return fmt.Sprintf("%dns", d.Nanoseconds())
}
