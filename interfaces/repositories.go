package interfaces

import (
	"context"
	"time"

	"github.com/pwalczyk/mailvault/internal/models"
)

type WatermarkRepository interface {
	// GetWatermark returns the stored watermark for a mailbox, or nil when the
	// mailbox has never been synced.
	GetWatermark(ctx context.Context, mailbox string) (*models.MailboxWatermark, error)
	// UpsertWatermark advances the stored watermark to max(stored, latestUID).
	UpsertWatermark(ctx context.Context, mailbox string, latestUID uint32, now time.Time) error
	ListWatermarks(ctx context.Context) ([]models.MailboxWatermark, error)
}

type SnapshotRepository interface {
	// GetSnapshot returns the snapshot row for (mailbox, month), or nil when
	// none exists yet.
	GetSnapshot(ctx context.Context, mailbox, month string) (*models.MailboxSnapshot, error)
	// UpsertSnapshot replaces the record list of the (mailbox, month) snapshot,
	// creating the row on first sync of the month.
	UpsertSnapshot(ctx context.Context, mailbox, month string, items models.EmailRecordList, now time.Time) error
	// ListSnapshots returns snapshots filtered by mailbox and/or month; empty
	// arguments match everything.
	ListSnapshots(ctx context.Context, mailbox, month string) ([]models.MailboxSnapshot, error)
	// DeleteSnapshots removes snapshots matching the given filters. Explicit
	// operator action; sync never deletes.
	DeleteSnapshots(ctx context.Context, mailbox, month string) error
}
