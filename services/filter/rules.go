// Package filter decides which fetched messages are in scope for a sync run.
package filter

import (
	"time"

	"github.com/pwalczyk/mailvault/internal/datemath"
	"github.com/pwalczyk/mailvault/internal/models"
)

// Timeframe restricts matches to one exact calendar (year, month).
type Timeframe struct {
	Year  int
	Month time.Month
}

// Rules is a pure predicate over extracted message metadata. An empty
// allowed-sender set disables the sender check entirely (permissive default);
// a nil Timeframe disables the date check.
type Rules struct {
	AllowedSenders []string
	Timeframe      *Timeframe
}

// CurrentMonth returns a timeframe for the current UTC month.
func CurrentMonth() *Timeframe {
	year, month := datemath.YearMonth(time.Now())
	return &Timeframe{Year: year, Month: month}
}

// IsEmpty reports whether the sender filter is disabled.
func (r Rules) IsEmpty() bool {
	return len(r.AllowedSenders) == 0
}

// Matches reports whether the record passes both the sender and the timeframe
// check. Sender comparison is exact and case-sensitive on the normalized
// local@host form.
func (r Rules) Matches(record models.EmailRecord) bool {
	return r.senderAllowed(record) && r.dateAllowed(record)
}

func (r Rules) senderAllowed(record models.EmailRecord) bool {
	if r.IsEmpty() {
		return true
	}
	for _, sender := range record.Senders {
		for _, allowed := range r.AllowedSenders {
			if sender == allowed {
				return true
			}
		}
	}
	return false
}

func (r Rules) dateAllowed(record models.EmailRecord) bool {
	if r.Timeframe == nil {
		return true
	}
	date := record.Date.UTC()
	return date.Year() == r.Timeframe.Year && date.Month() == r.Timeframe.Month
}
