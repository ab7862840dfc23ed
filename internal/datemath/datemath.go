// Package datemath holds the calendar arithmetic used to partition synced
// email by month and to resolve the "previous month" folder for recurring
// balance summaries.
package datemath

import (
	"fmt"
	"time"
)

// MonthKeyLayout is the partition key format used by mailbox snapshots.
const MonthKeyLayout = "2006_01"

// MonthKey returns the snapshot partition key (YYYY_MM) for t.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// YearMonth returns the UTC calendar (year, month) of t.
func YearMonth(t time.Time) (int, time.Month) {
	utc := t.UTC()
	return utc.Year(), utc.Month()
}

// PreviousMonth returns the calendar month preceding t's month, computed as
// the first of t's month minus one day. Handles January rollback and is
// independent of the day-of-month of t (no raw date subtraction).
func PreviousMonth(t time.Time) (int, time.Month) {
	utc := t.UTC()
	firstOfMonth := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfMonth.AddDate(0, 0, -1)
	return prev.Year(), prev.Month()
}

// PreviousMonthParts returns the previous month as zero-padded strings
// ("MM", "YYYY"), matching the directory layout of the balance folder.
func PreviousMonthParts(t time.Time) (string, string) {
	year, month := PreviousMonth(t)
	return fmt.Sprintf("%02d", int(month)), fmt.Sprintf("%d", year)
}
