package models

import "time"

// Card types accepted for a guest invitation.
const (
	// CardTypeSingle admits one person.
	CardTypeSingle = "single"
	// CardTypeDouble admits a pair.
	CardTypeDouble = "double"
)

// Guest represents an invited guest tracked for event entry.
type Guest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key, never reused.

	VisualID  int    `gorm:"not null;uniqueIndex"`           // Dense display ordinal driving the guest code.
	Name      string `gorm:"type:text;not null"`             // Guest display name.
	Phone     string `gorm:"type:text;not null;uniqueIndex"` // Contact phone, one guest per number.
	GuestCode string `gorm:"type:text;uniqueIndex"`          // QR-encoded identifier, GUEST-NNNN. Nullable for legacy rows until backfilled.

	CardType string `gorm:"type:text;not null;default:single"` // Invitation card type: single or double.

	QRCodeURL string `gorm:"type:text"` // Path of the rendered QR image, if generated.

	HasEntered bool       `gorm:"not null;default:false"` // Whether the guest has been admitted.
	EntryTime  *time.Time // Admission time, set exactly once on first entry.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// ValidCardType reports whether the given card type is one of the accepted values.
func ValidCardType(cardType string) bool {
	return cardType == CardTypeSingle || cardType == CardTypeDouble
}
