// Package bucket maps event timestamps onto aggregate bucket keys.
package bucket

import (
	"strconv"

	"synth-exchange-stats/internal/domain"
)

// Bucket widths in seconds.
const (
	DaySeconds           int64 = 86400
	FifteenMinuteSeconds int64 = 900
)

// Of returns the start of the width-sized window containing timestamp.
// Timestamps are chain time and never negative.
func Of(timestamp, width int64) int64 {
	return timestamp / width * width
}

// Key returns the aggregate key for an event in the given granularity.
// All-time granularities are keyed by network tag; windowed ones by window start.
func Key(g domain.Granularity, network string, timestamp int64) string {
	switch g {
	case domain.GranularityDaily:
		return strconv.FormatInt(Of(timestamp, DaySeconds), 10)
	case domain.GranularityFifteenMinute:
		return strconv.FormatInt(Of(timestamp, FifteenMinuteSeconds), 10)
	default:
		return network
	}
}
