package guest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/guestgate/guestgate/internal/models"
)

func TestImportCSV(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	// One pre-existing guest makes the duplicate row below a real collision.
	if _, errRegister := svc.Register(ctx, "Existing", "555-1200", ""); errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}

	input := strings.Join([]string{
		"Name,Phone,Card_Type",
		"Alice,555-1201,double",
		"Bob,555-1200,",     // duplicate phone
		",555-1202,",        // missing name
		"Carol,,single",     // missing phone
		"Dave,555-1203,jet", // invalid card type
		"Erin,555-1204,",
		"",
	}, "\n")

	result, errImport := svc.ImportCSV(ctx, strings.NewReader(input))
	if errImport != nil {
		t.Fatalf("import: %v", errImport)
	}
	if result.Imported != 2 || result.Skipped != 4 {
		t.Fatalf("result = %+v, want imported 2 skipped 4", result)
	}

	alice, errGet := svc.GetByCode(ctx, "GUEST-0002")
	if errGet != nil {
		t.Fatalf("get alice: %v", errGet)
	}
	if alice.Name != "Alice" || alice.CardType != models.CardTypeDouble {
		t.Fatalf("alice = %q/%q, want Alice/double", alice.Name, alice.CardType)
	}

	var count int64
	if errCount := svc.db.Model(&models.Guest{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 3 {
		t.Fatalf("guest count = %d, want 3", count)
	}
}

func TestImportCSVMissingColumns(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	_, errImport := svc.ImportCSV(context.Background(), strings.NewReader("name,email\nAlice,a@example.com\n"))
	if errImport == nil {
		t.Fatal("import without phone column should fail")
	}
}

func TestImportCSVAllocationExhaustedAborts(t *testing.T) {
	t.Parallel()

	conn := setupGuestTestDB(t)
	svc := NewService(conn)
	ctx := context.Background()

	// Same layout as the allocator exhaustion test: every code the probe can
	// reach within its bound is taken.
	for i := 0; i < maxAllocationAttempts; i++ {
		stray := models.Guest{
			VisualID:  -(i + 1),
			Name:      "Stray",
			Phone:     "555-13" + string(rune('0'+i)) + "0",
			GuestCode: FormatCode(i + 2),
		}
		if errCreate := conn.Create(&stray).Error; errCreate != nil {
			t.Fatalf("seed %d: %v", i, errCreate)
		}
	}
	anchor := models.Guest{VisualID: 1, Name: "Anchor", Phone: "555-1399", GuestCode: "GUEST-0001"}
	if errCreate := conn.Create(&anchor).Error; errCreate != nil {
		t.Fatalf("seed anchor: %v", errCreate)
	}

	_, errImport := svc.ImportCSV(ctx, strings.NewReader("name,phone\nZoe,555-1398\n"))
	if !errors.Is(errImport, ErrAllocationExhausted) {
		t.Fatalf("err = %v, want ErrAllocationExhausted", errImport)
	}
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	for i, name := range []string{"Alice", "Bob"} {
		if _, errRegister := svc.Register(ctx, name, "555-140"+string(rune('0'+i)), ""); errRegister != nil {
			t.Fatalf("register %s: %v", name, errRegister)
		}
	}
	if _, errEntry := svc.RecordEntry(ctx, "GUEST-0002"); errEntry != nil {
		t.Fatalf("record entry: %v", errEntry)
	}

	var buf bytes.Buffer
	if errExport := svc.ExportCSV(ctx, &buf); errExport != nil {
		t.Fatalf("export: %v", errExport)
	}

	records, errParse := csv.NewReader(&buf).ReadAll()
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if len(records) != 3 {
		t.Fatalf("record count = %d, want header + 2 rows", len(records))
	}
	if got := strings.Join(records[0], ","); got != "id,visual_id,name,phone,guest_code,card_type,has_entered,entry_time" {
		t.Fatalf("header = %q", got)
	}

	alice, bob := records[1], records[2]
	if alice[2] != "Alice" || alice[4] != "GUEST-0001" || alice[6] != "false" || alice[7] != "" {
		t.Fatalf("alice row = %v", alice)
	}
	if bob[2] != "Bob" || bob[4] != "GUEST-0002" || bob[6] != "true" || bob[7] == "" {
		t.Fatalf("bob row = %v", bob)
	}
}
