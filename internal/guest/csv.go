package guest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/guestgate/guestgate/internal/models"
)

// ImportResult summarizes a CSV import run.
type ImportResult struct {
	Imported int // Rows registered.
	Skipped  int // Duplicate or incomplete rows skipped.
}

// ImportCSV registers guests from a CSV stream with name and phone columns
// (card_type optional). Duplicate phones and incomplete rows are skipped and
// counted, never fatal; the import continues with the remaining rows.
// Allocation exhaustion aborts the run since every following row would fail
// the same way.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, errHeader := reader.Read()
	if errHeader != nil {
		return ImportResult{}, fmt.Errorf("guest: read csv header: %w", errHeader)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, okName := cols["name"]
	phoneIdx, okPhone := cols["phone"]
	if !okName || !okPhone {
		return ImportResult{}, errors.New("guest: csv must contain name and phone columns")
	}
	cardTypeIdx, hasCardType := cols["card_type"]

	var result ImportResult
	for {
		record, errRead := reader.Read()
		if errors.Is(errRead, io.EOF) {
			break
		}
		if errRead != nil {
			return result, fmt.Errorf("guest: read csv row: %w", errRead)
		}

		name := fieldAt(record, nameIdx)
		phone := fieldAt(record, phoneIdx)
		if name == "" || phone == "" {
			result.Skipped++
			continue
		}
		cardType := models.CardTypeSingle
		if hasCardType {
			if v := fieldAt(record, cardTypeIdx); v != "" {
				cardType = v
			}
		}

		_, errRegister := s.Register(ctx, name, phone, cardType)
		switch {
		case errRegister == nil:
			result.Imported++
		case errors.Is(errRegister, ErrDuplicatePhone), errors.Is(errRegister, ErrInvalidCardType):
			log.Warnf("skipping %q (%s): %v", name, phone, errRegister)
			result.Skipped++
		case errors.Is(errRegister, ErrAllocationExhausted):
			return result, errRegister
		default:
			return result, errRegister
		}
	}
	return result, nil
}

// ExportCSV writes the full guest table as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, errList := s.List(ctx, ListFilter{})
	if errList != nil {
		return errList
	}

	writer := csv.NewWriter(w)
	if errHeader := writer.Write([]string{"id", "visual_id", "name", "phone", "guest_code", "card_type", "has_entered", "entry_time"}); errHeader != nil {
		return errHeader
	}
	for _, row := range rows {
		entryTime := ""
		if row.EntryTime != nil {
			entryTime = row.EntryTime.UTC().Format("2006-01-02 15:04:05")
		}
		record := []string{
			fmt.Sprintf("%d", row.ID),
			fmt.Sprintf("%d", row.VisualID),
			row.Name,
			row.Phone,
			row.GuestCode,
			row.CardType,
			fmt.Sprintf("%t", row.HasEntered),
			entryTime,
		}
		if errRow := writer.Write(record); errRow != nil {
			return errRow
		}
	}
	writer.Flush()
	return writer.Error()
}

// fieldAt returns the trimmed field at idx, tolerating short records.
func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
