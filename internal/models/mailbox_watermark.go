package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/pwalczyk/mailvault/internal/utils"
)

// MailboxWatermark tracks the highest message UID ever committed for a
// mailbox. One row per mailbox, monotonically non-decreasing across runs.
type MailboxWatermark struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey"`
	Mailbox   string    `gorm:"column:mailbox;type:varchar(100);uniqueIndex;not null"`
	LatestUID uint32    `gorm:"column:latest_uid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (MailboxWatermark) TableName() string {
	return "mailbox_watermarks"
}

func (w *MailboxWatermark) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = utils.GenerateNanoIDWithPrefix("wm", 12)
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = utils.Now()
	}
	return nil
}
