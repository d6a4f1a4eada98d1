// file: internal/notify/render.go
// version: 1.0.0
// guid: 1a3b5c7d-9e0f-4a2b-8c4d-6e8f0a2b4c6d

package notify

import (
	"fmt"
	"time"
)

// HumanBytes converts a byte count to a human readable string.
func HumanBytes(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	const unit = 1024
	units := []string{"B", "KB", "MB", "GB", "TB"}

	value := float64(size)
	idx := 0
	for value >= unit && idx < len(units)-1 {
		value /= unit
		idx++
	}
	return fmt.Sprintf("%.2f %s", value, units[idx])
}

// FormatDuration renders a duration as rough human readable time.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0f seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.0f minutes", seconds/60)
	default:
		return fmt.Sprintf("%.1f hours", seconds/3600)
	}
}
