package models

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"time"
)

// EmailRecord is one extracted message. Immutable once created; the UID is the
// per-mailbox ordering and watermark key.
type EmailRecord struct {
	UID         uint32    `json:"message_id"`
	Subject     string    `json:"subject"`
	Senders     []string  `json:"senders"`
	Date        time.Time `json:"timestamp"`
	DateGuessed bool      `json:"date_guessed,omitempty"`
}

// EmailRecordList is a snapshot's record set, stored as a single JSON document.
type EmailRecordList []EmailRecord

// Value implements the driver.Valuer interface for EmailRecordList
func (l EmailRecordList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for EmailRecordList
func (l *EmailRecordList) Scan(value interface{}) error {
	if value == nil {
		*l = EmailRecordList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return nil
	}
}

// MaxUID returns the highest UID in the list, or 0 when empty.
func (l EmailRecordList) MaxUID() uint32 {
	var max uint32
	for _, record := range l {
		if record.UID > max {
			max = record.UID
		}
	}
	return max
}

// MergeByUID unions l with other, keyed by UID. Records already present in l
// win; records are immutable so a re-fetched UID carries identical content.
// The result is ordered by UID ascending.
func (l EmailRecordList) MergeByUID(other EmailRecordList) EmailRecordList {
	seen := make(map[uint32]bool, len(l))
	merged := make(EmailRecordList, 0, len(l)+len(other))
	for _, record := range l {
		if !seen[record.UID] {
			seen[record.UID] = true
			merged = append(merged, record)
		}
	}
	for _, record := range other {
		if !seen[record.UID] {
			seen[record.UID] = true
			merged = append(merged, record)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].UID < merged[j].UID })
	return merged
}
