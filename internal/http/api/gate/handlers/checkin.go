package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guestgate/guestgate/internal/guest"
)

// CheckInHandler handles gate scan endpoints.
type CheckInHandler struct {
	svc *guest.Service
}

// NewCheckInHandler wires a check-in handler with the guest service.
func NewCheckInHandler(svc *guest.Service) *CheckInHandler {
	return &CheckInHandler{svc: svc}
}

// checkInRequest defines the request body for a gate scan.
type checkInRequest struct {
	GuestCode string `json:"guest_code"`
}

// CheckIn records a scanned guest code as entered.
//
// A duplicate scan is a normal outcome: the station shows a friendly
// already-checked-in message with the original entry time rather than an
// error.
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var body checkInRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	code := strings.TrimSpace(body.GuestCode)
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_code is required"})
		return
	}

	result, errEntry := h.svc.RecordEntry(c.Request.Context(), code)
	if errEntry != nil {
		if errors.Is(errEntry, guest.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "not_found",
				"message": "Guest not found.",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check-in failed"})
		return
	}

	switch result.Status {
	case guest.StatusAlreadyEntered:
		c.JSON(http.StatusOK, gin.H{
			"status":     string(result.Status),
			"name":       result.Name,
			"entered_at": result.EnteredAt,
			"message":    result.Name + " already checked in.",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":     string(result.Status),
			"name":       result.Name,
			"entered_at": result.EnteredAt,
			"message":    result.Name + " successfully checked in.",
		})
	}
}

// Lookup returns a guest's entry state without mutating it, for station
// operators previewing a scan.
func (h *CheckInHandler) Lookup(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	row, errGet := h.svc.GetByCode(c.Request.Context(), code)
	if errGet != nil {
		if errors.Is(errGet, guest.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":        row.Name,
		"guest_code":  row.GuestCode,
		"card_type":   row.CardType,
		"has_entered": row.HasEntered,
		"entry_time":  row.EntryTime,
	})
}
