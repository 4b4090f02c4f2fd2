package format

import (
	"fmt"
	"time"
)

// FmtDuration formats a task run time: sub-second runs in milliseconds,
// then "Ys", then "Xm Ys". Detector tasks range from milliseconds
// (sasver) to minutes (epproc on a full exposure).
func FmtDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	s := int(d.Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// FmtBytes formats a file size with a binary-ish decimal suffix, for
// download and product listings.
func FmtBytes(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1f GB", float64(n)/1_000_000_000.0)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1f MB", float64(n)/1_000_000.0)
	case n >= 1000:
		return fmt.Sprintf("%.1f kB", float64(n)/1000.0)
	}
	return fmt.Sprintf("%d B", n)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
