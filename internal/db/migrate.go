package db

import (
	"investtrack/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Position{},
		&models.Dividend{},
		&models.Snapshot{},
		&models.SnapshotPosition{},
		&models.Profile{},
		&models.Setting{},
	)
}
