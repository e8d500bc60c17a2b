package guest

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guestgate/guestgate/internal/models"
)

// EntryStatus is the outcome of presenting a guest code at the gate.
type EntryStatus string

// Entry outcomes.
const (
	// StatusEntered means this scan performed the one-time entry transition.
	StatusEntered EntryStatus = "entered"
	// StatusAlreadyEntered means the guest was admitted by an earlier scan.
	// It is a normal outcome of duplicate scans, not an error.
	StatusAlreadyEntered EntryStatus = "already_entered"
)

// EntryResult describes a successful gate scan.
type EntryResult struct {
	Status    EntryStatus // Transition performed or duplicate scan.
	Name      string      // Guest name for display confirmation.
	EnteredAt time.Time   // Entry time; the prior one on duplicate scans.
}

// RecordEntry transitions a guest from not-entered to entered, exactly once.
//
// The transition is a conditional update on has_entered, so of any number of
// concurrent scans of the same code exactly one observes StatusEntered and
// the rest observe StatusAlreadyEntered with the original timestamp.
func (s *Service) RecordEntry(ctx context.Context, guestCode string) (EntryResult, error) {
	code := strings.TrimSpace(guestCode)
	if code == "" {
		return EntryResult{}, ErrGuestNotFound
	}

	var result EntryResult
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Guest{}).
			Where("guest_code = ? AND has_entered = ?", code, false).
			Updates(map[string]any{"has_entered": true, "entry_time": now})
		if res.Error != nil {
			return res.Error
		}

		var row models.Guest
		if errFind := tx.Where("guest_code = ?", code).First(&row).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrGuestNotFound
			}
			return errFind
		}

		if res.RowsAffected == 1 {
			result = EntryResult{Status: StatusEntered, Name: row.Name, EnteredAt: now}
			return nil
		}

		enteredAt := now
		if row.EntryTime != nil {
			enteredAt = *row.EntryTime
		}
		result = EntryResult{Status: StatusAlreadyEntered, Name: row.Name, EnteredAt: enteredAt}
		return nil
	})
	if errTx != nil {
		return EntryResult{}, errTx
	}

	if result.Status == StatusEntered {
		log.Infof("guest %s (%s) marked as entered", result.Name, code)
	} else {
		log.Infof("duplicate scan for %s (%s), entered at %s", result.Name, code, result.EnteredAt.Format(time.RFC3339))
	}
	return result, nil
}

// ResetAllEntries clears entry state for every guest and returns how many
// rows were reset. Maintenance operation for rehearsals and dry runs.
func (s *Service) ResetAllEntries(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Guest{}).
		Where("has_entered = ?", true).
		Updates(map[string]any{"has_entered": false, "entry_time": nil})
	if res.Error != nil {
		return 0, res.Error
	}
	log.Infof("reset entry status for %d guests", res.RowsAffected)
	return res.RowsAffected, nil
}
