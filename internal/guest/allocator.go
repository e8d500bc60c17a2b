package guest

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guestgate/guestgate/internal/models"
)

// maxAllocationAttempts bounds the search for a free guest code. Exhaustion
// is reported as ErrAllocationExhausted rather than looping forever.
const maxAllocationAttempts = 5

// Allocator hands out visual ID / guest code pairs.
//
// Reading MAX(visual_id) and inserting are separate statements, so without
// serialization two concurrent registrations can compute the same candidate.
// The mutex makes allocate-and-insert single-writer within this process; the
// unique indexes on guest_code and visual_id are the backstop against other
// processes sharing the database, and callers retry on that violation.
type Allocator struct {
	mu sync.Mutex
}

// Lock serializes an allocate-and-insert sequence.
func (a *Allocator) Lock() { a.mu.Lock() }

// Unlock releases the allocation lock.
func (a *Allocator) Unlock() { a.mu.Unlock() }

// Next computes the next free visual ID and guest code using tx.
//
// The candidate starts at MAX(visual_id)+1. Codes imported from other sources
// or left behind by deletions can already occupy a candidate, so each one is
// probed for collision and bumped until a free code is found, bounded by
// maxAllocationAttempts. Callers must hold the allocator lock and insert the
// record within the same transaction.
func (a *Allocator) Next(tx *gorm.DB) (int, string, error) {
	var maxVisualID int
	if errMax := tx.Model(&models.Guest{}).
		Select("COALESCE(MAX(visual_id), 0)").
		Scan(&maxVisualID).Error; errMax != nil {
		return 0, "", errMax
	}

	candidate := maxVisualID + 1
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		code := FormatCode(candidate)
		var count int64
		if errCount := tx.Model(&models.Guest{}).
			Where("guest_code = ?", code).
			Count(&count).Error; errCount != nil {
			return 0, "", errCount
		}
		if count == 0 {
			return candidate, code, nil
		}
		log.Warnf("guest code %s already taken, probing next candidate (attempt %d/%d)", code, attempt, maxAllocationAttempts)
		candidate++
	}

	log.Errorf("no free guest code found after %d attempts (max visual_id %d)", maxAllocationAttempts, maxVisualID)
	return 0, "", ErrAllocationExhausted
}
