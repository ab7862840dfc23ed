package repository

import (
	"gorm.io/gorm"

	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/models"
)

type Repositories struct {
	Watermarks interfaces.WatermarkRepository
	Snapshots  interfaces.SnapshotRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Watermarks: NewWatermarkRepository(db),
		Snapshots:  NewSnapshotRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MailboxWatermark{},
		&models.MailboxSnapshot{},
	)
}
