package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/pwalczyk/mailvault/internal/utils"
)

// MailboxSnapshot holds the metadata records collected for one mailbox in one
// calendar month. At most one row exists per (mailbox, month) pair.
type MailboxSnapshot struct {
	ID        string          `gorm:"column:id;type:varchar(50);primaryKey"`
	Mailbox   string          `gorm:"column:mailbox;type:varchar(100);uniqueIndex:idx_snapshot_mailbox_month;not null"`
	Month     string          `gorm:"column:month;type:varchar(7);uniqueIndex:idx_snapshot_mailbox_month;not null"`
	Items     EmailRecordList `gorm:"column:items;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time       `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (MailboxSnapshot) TableName() string {
	return "mailbox_snapshots"
}

func (s *MailboxSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = utils.GenerateNanoIDWithPrefix("snap", 12)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.Now()
	}
	return nil
}
