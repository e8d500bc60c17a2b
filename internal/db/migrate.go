package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/guestgate/guestgate/internal/models"
)

// Migrate creates or updates the schema for all tracked entities.
//
// Guest lists imported from older databases may predate the visual_id and
// guest_code columns; AutoMigrate adds them and backfillGuestCodes derives the
// missing codes so scans keep working after an upgrade.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Guest{},
		&models.Admin{},
		&models.Setting{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return backfillGuestCodes(conn)
}

// backfillGuestCodes fills guest_code for rows that only carry a visual_id.
func backfillGuestCodes(conn *gorm.DB) error {
	var rows []models.Guest
	if errFind := conn.
		Where("guest_code IS NULL OR guest_code = ''").
		Where("visual_id > 0").
		Find(&rows).Error; errFind != nil {
		return fmt.Errorf("db: backfill scan: %w", errFind)
	}
	for _, row := range rows {
		code := fmt.Sprintf("GUEST-%04d", row.VisualID)
		if errUpdate := conn.Model(&models.Guest{}).
			Where("id = ?", row.ID).
			Update("guest_code", code).Error; errUpdate != nil {
			return fmt.Errorf("db: backfill guest %d: %w", row.ID, errUpdate)
		}
	}
	return nil
}
