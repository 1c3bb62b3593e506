package session

import (
	"fmt"
	"time"
)

// FormatElapsed renders an elapsed duration for the timer display:
// M:SS below one hour, H:MM:SS from one hour up. Negative durations
// render as zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
