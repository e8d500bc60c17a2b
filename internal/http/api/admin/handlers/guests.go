package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/guestgate/guestgate/internal/guest"
	"github.com/guestgate/guestgate/internal/models"
	"github.com/guestgate/guestgate/internal/qrcode"
)

// GuestHandler handles admin operations on the guest list.
type GuestHandler struct {
	svc *guest.Service
	gen *qrcode.Generator
}

// NewGuestHandler wires a guest handler with its service and QR generator.
func NewGuestHandler(svc *guest.Service, gen *qrcode.Generator) *GuestHandler {
	return &GuestHandler{svc: svc, gen: gen}
}

// List returns guests filtered by query parameters, ordered by visual ID.
func (h *GuestHandler) List(c *gin.Context) {
	filter := guest.ListFilter{
		Name: strings.TrimSpace(c.Query("name")),
	}
	switch strings.TrimSpace(c.Query("entered")) {
	case "true", "1":
		entered := true
		filter.Entered = &entered
	case "false", "0":
		entered := false
		filter.Entered = &entered
	}

	rows, errList := h.svc.List(c.Request.Context(), filter)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list guests failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, formatGuest(&row))
	}
	c.JSON(http.StatusOK, gin.H{"guests": out})
}

// createGuestRequest captures the payload for registering a single guest.
type createGuestRequest struct {
	Name     string `json:"name"`      // Guest display name.
	Phone    string `json:"phone"`     // Contact phone, unique per guest.
	CardType string `json:"card_type"` // Optional card type, defaults to single.
}

// Create registers a new guest, allocating its identifier and QR artifact.
func (h *GuestHandler) Create(c *gin.Context) {
	var body createGuestRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Phone) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and phone are required"})
		return
	}

	row, errRegister := h.svc.Register(c.Request.Context(), body.Name, body.Phone, body.CardType)
	if errRegister != nil {
		switch {
		case errors.Is(errRegister, guest.ErrDuplicatePhone):
			c.JSON(http.StatusConflict, gin.H{"error": "phone already registered"})
		case errors.Is(errRegister, guest.ErrInvalidCardType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "card_type must be single or double"})
		case errors.Is(errRegister, guest.ErrAllocationExhausted):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not allocate a guest code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "register guest failed"})
		}
		return
	}

	h.renderArtifact(c, row)
	c.JSON(http.StatusCreated, formatGuest(row))
}

// Get fetches a single guest by ID.
func (h *GuestHandler) Get(c *gin.Context) {
	id, ok := parseGuestID(c)
	if !ok {
		return
	}
	row, errGet := h.svc.Get(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, guest.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatGuest(row))
}

// updateGuestRequest captures optional fields for guest updates.
type updateGuestRequest struct {
	Name     *string `json:"name"`      // Optional updated name.
	Phone    *string `json:"phone"`     // Optional updated phone.
	CardType *string `json:"card_type"` // Optional updated card type.
}

// Update applies validated field changes to a guest.
func (h *GuestHandler) Update(c *gin.Context) {
	id, ok := parseGuestID(c)
	if !ok {
		return
	}
	var body updateGuestRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	row, errUpdate := h.svc.Update(c.Request.Context(), id, guest.UpdateFields{
		Name:     body.Name,
		Phone:    body.Phone,
		CardType: body.CardType,
	})
	if errUpdate != nil {
		switch {
		case errors.Is(errUpdate, guest.ErrGuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(errUpdate, guest.ErrDuplicatePhone):
			c.JSON(http.StatusConflict, gin.H{"error": "phone already registered"})
		case errors.Is(errUpdate, guest.ErrInvalidCardType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "card_type must be single or double"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": errUpdate.Error()})
		}
		return
	}

	// Renaming changes the artifact file name, so refresh it.
	if body.Name != nil {
		h.renderArtifact(c, row)
	}
	c.JSON(http.StatusOK, formatGuest(row))
}

// Delete removes a guest record and its QR artifact.
func (h *GuestHandler) Delete(c *gin.Context) {
	id, ok := parseGuestID(c)
	if !ok {
		return
	}
	row, errGet := h.svc.Get(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, guest.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	if errDelete := h.svc.Delete(c.Request.Context(), id); errDelete != nil {
		if errors.Is(errDelete, guest.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if h.gen != nil {
		if errRemove := h.gen.Remove(row.GuestCode, row.Name); errRemove != nil {
			log.Warnf("delete guest %d: %v", id, errRemove)
		}
	}
	c.Status(http.StatusNoContent)
}

// ImportCSV registers guests from an uploaded CSV file and reports counts.
func (h *GuestHandler) ImportCSV(c *gin.Context) {
	file, errFile := c.FormFile("file")
	if errFile != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be a csv"})
		return
	}

	src, errOpen := file.Open()
	if errOpen != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open upload failed"})
		return
	}
	defer func() { _ = src.Close() }()

	result, errImport := h.svc.ImportCSV(c.Request.Context(), src)
	if errImport != nil {
		log.Errorf("csv import aborted after %d rows: %v", result.Imported, errImport)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    "import aborted",
			"imported": result.Imported,
			"skipped":  result.Skipped,
		})
		return
	}

	// Imported rows get artifacts in one pass afterwards.
	h.regenerateAll(c)

	c.JSON(http.StatusOK, gin.H{
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

// ExportCSV streams the guest table as a CSV download.
func (h *GuestHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="guests.csv"`)
	c.Header("Content-Type", "text/csv")
	if errExport := h.svc.ExportCSV(c.Request.Context(), c.Writer); errExport != nil {
		log.Errorf("csv export failed: %v", errExport)
	}
}

// ResetEntries clears entry state for every guest.
func (h *GuestHandler) ResetEntries(c *gin.Context) {
	count, errReset := h.svc.ResetAllEntries(c.Request.Context())
	if errReset != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": count})
}

// RegenerateQRCodes re-renders the QR artifact for every guest.
func (h *GuestHandler) RegenerateQRCodes(c *gin.Context) {
	count := h.regenerateAll(c)
	if count < 0 {
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": count})
}

// QRBundle streams all QR artifacts as a zip download.
func (h *GuestHandler) QRBundle(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="qr_codes.zip"`)
	c.Header("Content-Type", "application/zip")
	if errBundle := h.gen.WriteBundle(c.Writer); errBundle != nil {
		log.Errorf("qr bundle failed: %v", errBundle)
	}
}

// regenerateAll renders artifacts for all guests, returning the count or -1
// after writing an error response.
func (h *GuestHandler) regenerateAll(c *gin.Context) int {
	rows, errList := h.svc.List(c.Request.Context(), guest.ListFilter{})
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list guests failed"})
		return -1
	}
	count := 0
	for _, row := range rows {
		h.renderArtifact(c, &row)
		count++
	}
	return count
}

// renderArtifact writes the QR image for a guest and records its URL.
// Artifact failures are logged, never fatal to the request.
func (h *GuestHandler) renderArtifact(c *gin.Context, row *models.Guest) {
	if h.gen == nil || row == nil {
		return
	}
	name, errGenerate := h.gen.Generate(row.GuestCode, row.Name)
	if errGenerate != nil {
		log.Warnf("render qr for %s: %v", row.GuestCode, errGenerate)
		return
	}
	url := "/qr/" + name
	if errSet := h.svc.SetQRCodeURL(c.Request.Context(), row.ID, url); errSet != nil {
		log.Warnf("record qr url for %s: %v", row.GuestCode, errSet)
		return
	}
	row.QRCodeURL = url
}

// parseGuestID parses the :id route parameter, writing the error response on
// failure.
func parseGuestID(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// formatGuest maps a guest model into a response payload.
func formatGuest(row *models.Guest) gin.H {
	return gin.H{
		"id":          row.ID,
		"visual_id":   row.VisualID,
		"name":        row.Name,
		"phone":       row.Phone,
		"guest_code":  row.GuestCode,
		"card_type":   row.CardType,
		"qr_code_url": row.QRCodeURL,
		"has_entered": row.HasEntered,
		"entry_time":  row.EntryTime,
		"created_at":  row.CreatedAt,
	}
}
