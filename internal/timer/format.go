package timer

import (
	"fmt"
	"time"
)

// FormatElapsed renders d as MM:SS below one hour and HH:MM:SS otherwise.
// Sub-second precision is truncated.
func FormatElapsed(d time.Duration) string {
	total := int64(nonNegative(d) / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
