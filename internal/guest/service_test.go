package guest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/guestgate/guestgate/internal/models"
)

func setupGuestTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:guest_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	// One connection keeps concurrent test writers serialized at the pool.
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := conn.AutoMigrate(&models.Guest{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func TestRegisterAssignsSequentialCodes(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	names := []string{"A", "B", "C"}
	for i, name := range names {
		row, errRegister := svc.Register(ctx, name, fmt.Sprintf("555-010%d", i), "")
		if errRegister != nil {
			t.Fatalf("register %s: %v", name, errRegister)
		}
		wantCode := fmt.Sprintf("GUEST-%04d", i+1)
		if row.VisualID != i+1 {
			t.Fatalf("visual id = %d, want %d", row.VisualID, i+1)
		}
		if row.GuestCode != wantCode {
			t.Fatalf("guest code = %q, want %q", row.GuestCode, wantCode)
		}
		if row.HasEntered {
			t.Fatalf("new guest %s should not be entered", name)
		}
		if row.CardType != models.CardTypeSingle {
			t.Fatalf("card type = %q, want %q", row.CardType, models.CardTypeSingle)
		}
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	if _, errFirst := svc.Register(ctx, "Alice", "555-0100", ""); errFirst != nil {
		t.Fatalf("first register: %v", errFirst)
	}
	_, errSecond := svc.Register(ctx, "Alice Again", "555-0100", "")
	if !errors.Is(errSecond, ErrDuplicatePhone) {
		t.Fatalf("second register err = %v, want ErrDuplicatePhone", errSecond)
	}

	var count int64
	if errCount := svc.db.Model(&models.Guest{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("guest count = %d, want 1", count)
	}
}

func TestRegisterInvalidCardType(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	_, errRegister := svc.Register(context.Background(), "Bob", "555-0199", "triple")
	if !errors.Is(errRegister, ErrInvalidCardType) {
		t.Fatalf("err = %v, want ErrInvalidCardType", errRegister)
	}
}

func TestRegisterConcurrentDistinctVisualIDs(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errRegister := svc.Register(ctx, fmt.Sprintf("Guest %d", i), fmt.Sprintf("555-02%02d", i), "")
			errCh <- errRegister
		}(i)
	}
	wg.Wait()
	close(errCh)
	for errRegister := range errCh {
		if errRegister != nil {
			t.Fatalf("concurrent register: %v", errRegister)
		}
	}

	var rows []models.Guest
	if errFind := svc.db.Order("visual_id ASC").Find(&rows).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if len(rows) != n {
		t.Fatalf("guest count = %d, want %d", len(rows), n)
	}
	seen := map[int]bool{}
	for _, row := range rows {
		if row.VisualID <= 0 {
			t.Fatalf("visual id %d not positive", row.VisualID)
		}
		if seen[row.VisualID] {
			t.Fatalf("duplicate visual id %d", row.VisualID)
		}
		seen[row.VisualID] = true
		if want := FormatCode(row.VisualID); row.GuestCode != want {
			t.Fatalf("guest code = %q, want %q", row.GuestCode, want)
		}
	}
}

func TestUpdateGuestFields(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	row, errRegister := svc.Register(ctx, "Carol", "555-0300", "")
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}

	newName := "Caroline"
	newCard := models.CardTypeDouble
	updated, errUpdate := svc.Update(ctx, row.ID, UpdateFields{Name: &newName, CardType: &newCard})
	if errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}
	if updated.Name != "Caroline" || updated.CardType != models.CardTypeDouble {
		t.Fatalf("updated = %q/%q, want Caroline/double", updated.Name, updated.CardType)
	}
	if updated.GuestCode != row.GuestCode || updated.VisualID != row.VisualID {
		t.Fatalf("identifier changed on update: %q/%d", updated.GuestCode, updated.VisualID)
	}

	if _, errMissing := svc.Update(ctx, row.ID+99, UpdateFields{Name: &newName}); !errors.Is(errMissing, ErrGuestNotFound) {
		t.Fatalf("update missing err = %v, want ErrGuestNotFound", errMissing)
	}
}

func TestUpdateDuplicatePhone(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	if _, errFirst := svc.Register(ctx, "Dan", "555-0400", ""); errFirst != nil {
		t.Fatalf("register: %v", errFirst)
	}
	second, errSecond := svc.Register(ctx, "Eve", "555-0401", "")
	if errSecond != nil {
		t.Fatalf("register: %v", errSecond)
	}

	taken := "555-0400"
	if _, errUpdate := svc.Update(ctx, second.ID, UpdateFields{Phone: &taken}); !errors.Is(errUpdate, ErrDuplicatePhone) {
		t.Fatalf("err = %v, want ErrDuplicatePhone", errUpdate)
	}
}

func TestDeleteGuest(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	row, errRegister := svc.Register(ctx, "Frank", "555-0500", "")
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if errDelete := svc.Delete(ctx, row.ID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if errAgain := svc.Delete(ctx, row.ID); !errors.Is(errAgain, ErrGuestNotFound) {
		t.Fatalf("second delete err = %v, want ErrGuestNotFound", errAgain)
	}
	if _, errGet := svc.Get(ctx, row.ID); !errors.Is(errGet, ErrGuestNotFound) {
		t.Fatalf("get err = %v, want ErrGuestNotFound", errGet)
	}
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	svc := NewService(setupGuestTestDB(t))
	ctx := context.Background()

	for i, name := range []string{"Grace Hopper", "Alan Kay", "Grace Kelly"} {
		if _, errRegister := svc.Register(ctx, name, fmt.Sprintf("555-06%02d", i), ""); errRegister != nil {
			t.Fatalf("register %s: %v", name, errRegister)
		}
	}
	if _, errEntry := svc.RecordEntry(ctx, "GUEST-0002"); errEntry != nil {
		t.Fatalf("record entry: %v", errEntry)
	}

	byName, errByName := svc.List(ctx, ListFilter{Name: "grace"})
	if errByName != nil {
		t.Fatalf("list by name: %v", errByName)
	}
	if len(byName) != 2 {
		t.Fatalf("name filter matched %d, want 2", len(byName))
	}

	entered := true
	byEntered, errByEntered := svc.List(ctx, ListFilter{Entered: &entered})
	if errByEntered != nil {
		t.Fatalf("list by entered: %v", errByEntered)
	}
	if len(byEntered) != 1 || byEntered[0].Name != "Alan Kay" {
		t.Fatalf("entered filter = %+v, want just Alan Kay", byEntered)
	}
}
