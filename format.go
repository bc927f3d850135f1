package main

import (
	"fmt"
	"strconv"
	"strings"
)

// formatSleepRecord renders a single night's summary.
func formatSleepRecord(date string, rec *SleepRecord) string {
	return fmt.Sprintf(`😴 Sleep Data - %s

Sleep Score: %s
Sleep Efficiency: %s%%
Total Sleep: %s seconds
REM Sleep: %s seconds
Deep Sleep: %s seconds
Light Sleep: %s seconds
Bedtime: %s - %s
Sleep Latency: %s seconds
Time in Bed: %s seconds`,
		date,
		fmtInt(rec.Score),
		fmtInt(rec.Efficiency),
		fmtInt(rec.Total),
		fmtInt(rec.Rem),
		fmtInt(rec.Deep),
		fmtInt(rec.Light),
		fmtString(rec.BedtimeStart),
		fmtString(rec.BedtimeEnd),
		fmtInt(rec.Latency),
		fmtInt(rec.TimeInBed))
}

// formatWeekSummary renders one line per night plus the average score over
// all nights that have one. The average line is omitted when no night does.
func formatWeekSummary(start, end string, records []SleepRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "😴 Sleep Data - Past Week (%s to %s)\n\n", start, end)

	for _, rec := range records {
		day := rec.Day
		if day == "" {
			day = "Unknown"
		}
		fmt.Fprintf(&b, "%s: Score %s, Efficiency %s%%, Total Sleep %ss\n",
			day, fmtInt(rec.Score), fmtInt(rec.Efficiency), fmtInt(rec.Total))
	}

	if avg, ok := averageScore(records); ok {
		fmt.Fprintf(&b, "\nAverage Sleep Score: %.1f", avg)
	}

	return b.String()
}

// averageScore computes the arithmetic mean of all non-null scores. The
// second return is false when no record has a score.
func averageScore(records []SleepRecord) (float64, bool) {
	sum, count := 0, 0
	for _, rec := range records {
		if rec.Score != nil {
			sum += *rec.Score
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return float64(sum) / float64(count), true
}

func fmtInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func fmtString(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}
