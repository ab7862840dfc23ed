package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/models"
)

type watermarkRepository struct {
	db *gorm.DB
}

func NewWatermarkRepository(db *gorm.DB) interfaces.WatermarkRepository {
	return &watermarkRepository{db: db}
}

func (r *watermarkRepository) GetWatermark(ctx context.Context, mailbox string) (*models.MailboxWatermark, error) {
	var watermark models.MailboxWatermark
	result := r.db.WithContext(ctx).
		Where("mailbox = ?", mailbox).
		First(&watermark)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil // mailbox never synced
		}
		return nil, errors.Wrapf(result.Error, "failed to get watermark for mailbox %s", mailbox)
	}

	return &watermark, nil
}

// UpsertWatermark advances the watermark to max(stored, latestUID). The stored
// value never decreases.
func (r *watermarkRepository) UpsertWatermark(ctx context.Context, mailbox string, latestUID uint32, now time.Time) error {
	existing, err := r.GetWatermark(ctx, mailbox)
	if err != nil {
		return err
	}

	if existing == nil {
		watermark := &models.MailboxWatermark{
			Mailbox:   mailbox,
			LatestUID: latestUID,
			UpdatedAt: now,
		}
		if err := r.db.WithContext(ctx).Create(watermark).Error; err != nil {
			return errors.Wrapf(err, "failed to create watermark for mailbox %s", mailbox)
		}
		return nil
	}

	newUID := existing.LatestUID
	if latestUID > newUID {
		newUID = latestUID
	}

	result := r.db.WithContext(ctx).
		Model(&models.MailboxWatermark{}).
		Where("mailbox = ?", mailbox).
		Updates(map[string]interface{}{
			"latest_uid": newUID,
			"updated_at": now,
		})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update watermark for mailbox %s", mailbox)
	}

	return nil
}

func (r *watermarkRepository) ListWatermarks(ctx context.Context) ([]models.MailboxWatermark, error) {
	var watermarks []models.MailboxWatermark
	if err := r.db.WithContext(ctx).Order("mailbox").Find(&watermarks).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list watermarks")
	}
	return watermarks, nil
}
