package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/models"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) interfaces.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetSnapshot(ctx context.Context, mailbox, month string) (*models.MailboxSnapshot, error) {
	var snapshot models.MailboxSnapshot
	result := r.db.WithContext(ctx).
		Where("mailbox = ? AND month = ?", mailbox, month).
		First(&snapshot)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil // no snapshot for this month yet
		}
		return nil, errors.Wrapf(result.Error, "failed to get snapshot for %s/%s", mailbox, month)
	}

	return &snapshot, nil
}

func (r *snapshotRepository) UpsertSnapshot(ctx context.Context, mailbox, month string, items models.EmailRecordList, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.MailboxSnapshot{}).
		Where("mailbox = ? AND month = ?", mailbox, month).
		Updates(map[string]interface{}{
			"items":      items,
			"updated_at": now,
		})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update snapshot for %s/%s", mailbox, month)
	}

	if result.RowsAffected == 0 {
		snapshot := &models.MailboxSnapshot{
			Mailbox:   mailbox,
			Month:     month,
			Items:     items,
			UpdatedAt: now,
		}
		if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
			return errors.Wrapf(err, "failed to create snapshot for %s/%s", mailbox, month)
		}
	}

	return nil
}

func (r *snapshotRepository) ListSnapshots(ctx context.Context, mailbox, month string) ([]models.MailboxSnapshot, error) {
	query := r.db.WithContext(ctx).Model(&models.MailboxSnapshot{})
	if mailbox != "" {
		query = query.Where("mailbox = ?", mailbox)
	}
	if month != "" {
		query = query.Where("month = ?", month)
	}

	var snapshots []models.MailboxSnapshot
	if err := query.Order("mailbox, month").Find(&snapshots).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list snapshots")
	}
	return snapshots, nil
}

func (r *snapshotRepository) DeleteSnapshots(ctx context.Context, mailbox, month string) error {
	query := r.db.WithContext(ctx)
	if mailbox != "" {
		query = query.Where("mailbox = ?", mailbox)
	}
	if month != "" {
		query = query.Where("month = ?", month)
	}
	if mailbox == "" && month == "" {
		return errors.New("refusing to delete snapshots without a mailbox or month filter")
	}

	if err := query.Delete(&models.MailboxSnapshot{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete snapshots for %s/%s", mailbox, month)
	}
	return nil
}
