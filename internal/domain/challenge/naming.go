package challenge

import (
	"time"

	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// NextPeriodName derives the name for a period opened at now. Names are the
// current year-month; a rerun within the same month gets a trailing letter
// suffix, incremented per rerun: "2025-09", "2025-09a", "2025-09b", ...
// lastName is the name of the most recently created period ("" if none).
func NextPeriodName(lastName string, now time.Time) string {
	base := timeutil.FormatMonth(now)
	if lastName == "" {
		return base
	}

	prev := lastName
	var suffix byte
	if n := len(prev); n == len(base)+1 {
		if c := prev[n-1]; c >= 'a' && c <= 'z' {
			suffix = c
			prev = prev[:n-1]
		}
	}

	if prev != base {
		return base
	}
	if suffix == 0 {
		return base + "a"
	}
	if suffix >= 'z' {
		// 26 reruns in one month; saturate rather than overflow.
		return base + "z"
	}
	return base + string(suffix+1)
}
