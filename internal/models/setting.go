package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores a key/value event configuration entry in the database.
//
// Event metadata (event name, venue, date) lives here instead of in forked
// per-deployment config files.
type Setting struct {
	Key       string         `gorm:"type:varchar(255);primaryKey"`                      // Configuration key.
	Value     datatypes.JSON `gorm:"type:jsonb"`                                        // JSON-encoded value.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"` // Last update timestamp.
}
