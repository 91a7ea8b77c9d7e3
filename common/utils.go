package common

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

func FormatCount(n uint64) string {
	return humanize.Comma(int64(n))
}

func FormatSpeed(rs ReporterState) string {
	return fmt.Sprintf("%.2f", rs.Speed())
}

// FormatBlockAge renders an inter-block time, e.g. "61 seconds (1m1s)".
func FormatBlockAge(seconds int64) string {
	return fmt.Sprintf("%d seconds (%s)", seconds, time.Duration(seconds)*time.Second)
}

// FormatSince renders the distance between a block time and now, e.g. "3 hours ago".
func FormatSince(blockTime, now time.Time) string {
	return humanize.RelTime(blockTime, now, "ago", "from now")
}
