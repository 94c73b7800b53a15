// services/guest_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

type GuestService struct {
	DB *gorm.DB
}

func NewGuestService(db *gorm.DB) *GuestService {
	return &GuestService{DB: db}
}

// CreateGuest stores a guest owned by the principal. The pointer gets its ID
// filled in.
func (s *GuestService) CreateGuest(ctx context.Context, p Principal, guest *models.Guest) error {
	guest.Name = strings.TrimSpace(guest.Name)
	if guest.Name == "" {
		return fmt.Errorf("%w: guest name is required", ErrValidation)
	}
	if guest.Age < 0 {
		return fmt.Errorf("%w: guest age cannot be negative", ErrValidation)
	}
	guest.ID = 0
	guest.UserID = p.UserID
	if err := s.DB.WithContext(ctx).Create(guest).Error; err != nil {
		return fmt.Errorf("create guest: %w", err)
	}
	log.Debug().Uint("guest", guest.ID).Uint("user", p.UserID).Msg("guest created")
	return nil
}

// ListGuests returns the principal's guests, newest first.
func (s *GuestService) ListGuests(ctx context.Context, p Principal) ([]models.Guest, error) {
	var guests []models.Guest
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", p.UserID).
		Order("id DESC").
		Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("list guests for user %d: %w", p.UserID, err)
	}
	return guests, nil
}
