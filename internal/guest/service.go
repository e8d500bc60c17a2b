package guest

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	dbutil "github.com/guestgate/guestgate/internal/db"
	"github.com/guestgate/guestgate/internal/models"
)

// Service implements guest registration, lookup and entry tracking over a
// single guests table. All mutations run in one short transaction each; no
// lock is held across requests.
type Service struct {
	db    *gorm.DB
	alloc Allocator
}

// NewService wires a guest service with its database dependency.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register allocates an identifier and persists a new guest.
//
// A guest-code collision from a concurrent writer in another process shows up
// as a unique violation on insert; that consumes an attempt and the
// allocate-and-insert sequence is retried. Phone duplicates are a caller
// error and never retried.
func (s *Service) Register(ctx context.Context, name, phone, cardType string) (*models.Guest, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if cardType = strings.TrimSpace(cardType); cardType == "" {
		cardType = models.CardTypeSingle
	}
	if name == "" || phone == "" {
		return nil, errors.New("guest: name and phone are required")
	}
	if !models.ValidCardType(cardType) {
		return nil, ErrInvalidCardType
	}

	s.alloc.Lock()
	defer s.alloc.Unlock()

	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		created, errTry := s.tryRegister(ctx, name, phone, cardType)
		if errTry == nil {
			return created, nil
		}
		if errors.Is(errTry, ErrDuplicatePhone) || errors.Is(errTry, ErrAllocationExhausted) {
			return nil, errTry
		}
		if isUniqueViolation(errTry) {
			log.Warnf("guest code collision while registering %q, retrying allocation (attempt %d/%d)", name, attempt, maxAllocationAttempts)
			continue
		}
		return nil, errTry
	}
	log.Errorf("registration of %q gave up after %d allocation attempts", name, maxAllocationAttempts)
	return nil, ErrAllocationExhausted
}

// tryRegister performs one allocate-and-insert transaction.
func (s *Service) tryRegister(ctx context.Context, name, phone, cardType string) (*models.Guest, error) {
	var created models.Guest
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visualID, code, errNext := s.alloc.Next(tx)
		if errNext != nil {
			return errNext
		}
		created = models.Guest{
			VisualID:  visualID,
			Name:      name,
			Phone:     phone,
			GuestCode: code,
			CardType:  cardType,
		}
		if errCreate := tx.Create(&created).Error; errCreate != nil {
			if isUniqueViolationOn(errCreate, "phone") {
				return ErrDuplicatePhone
			}
			return errCreate
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &created, nil
}

// Get fetches a guest by primary key.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Guest, error) {
	var row models.Guest
	if errFind := s.db.WithContext(ctx).First(&row, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, errFind
	}
	return &row, nil
}

// GetByCode fetches a guest by guest code.
func (s *Service) GetByCode(ctx context.Context, code string) (*models.Guest, error) {
	var row models.Guest
	if errFind := s.db.WithContext(ctx).
		Where("guest_code = ?", strings.TrimSpace(code)).
		First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, errFind
	}
	return &row, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Name    string // Case-insensitive substring match on name.
	Entered *bool  // Filter by entry status when set.
}

// List returns guests ordered by visual ID.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Guest, error) {
	q := s.db.WithContext(ctx).Model(&models.Guest{})
	if nameQ := strings.TrimSpace(filter.Name); nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "name"), pattern)
	}
	if filter.Entered != nil {
		q = q.Where("has_entered = ?", *filter.Entered)
	}
	var rows []models.Guest
	if errFind := q.Order("visual_id ASC").Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// UpdateFields carries optional guest attribute changes.
type UpdateFields struct {
	Name     *string
	Phone    *string
	CardType *string
}

// Update applies attribute changes to a guest. The identifier columns and
// entry state are not touchable through this path.
func (s *Service) Update(ctx context.Context, id uint64, fields UpdateFields) (*models.Guest, error) {
	updates := map[string]any{}
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, errors.New("guest: name cannot be empty")
		}
		updates["name"] = name
	}
	if fields.Phone != nil {
		phone := strings.TrimSpace(*fields.Phone)
		if phone == "" {
			return nil, errors.New("guest: phone cannot be empty")
		}
		updates["phone"] = phone
	}
	if fields.CardType != nil {
		cardType := strings.TrimSpace(*fields.CardType)
		if !models.ValidCardType(cardType) {
			return nil, ErrInvalidCardType
		}
		updates["card_type"] = cardType
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	res := s.db.WithContext(ctx).Model(&models.Guest{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueViolationOn(res.Error, "phone") {
			return nil, ErrDuplicatePhone
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrGuestNotFound
	}
	return s.Get(ctx, id)
}

// SetQRCodeURL records the rendered QR artifact path for a guest.
func (s *Service) SetQRCodeURL(ctx context.Context, id uint64, url string) error {
	res := s.db.WithContext(ctx).Model(&models.Guest{}).
		Where("id = ?", id).
		Update("qr_code_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGuestNotFound
	}
	return nil
}

// Delete removes a guest record. Cleanup of external artifacts such as QR
// images is the caller's responsibility.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Guest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGuestNotFound
	}
	return nil
}
