// services/hotel_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

// HotelService manages hotels. Whenever a hotel becomes bookable the year of
// ledger rows of every room is created in the same transaction.
type HotelService struct {
	DB        *gorm.DB
	Inventory *InventoryService
	Rooms     *RoomService
}

func NewHotelService(db *gorm.DB, inventory *InventoryService, rooms *RoomService) *HotelService {
	return &HotelService{DB: db, Inventory: inventory, Rooms: rooms}
}

func loadOwnedHotel(tx *gorm.DB, p Principal, hotelID uint) (models.Hotel, error) {
	var hotel models.Hotel
	if err := tx.First(&hotel, hotelID).Error; err != nil {
		return hotel, notFoundOr(err, "hotel", hotelID)
	}
	return hotel, p.mustOwn(hotel.OwnerID, "hotel", hotelID)
}

// CreateHotel stores an inactive hotel owned by the principal.
func (s *HotelService) CreateHotel(ctx context.Context, p Principal, hotel *models.Hotel) error {
	hotel.Name = strings.TrimSpace(hotel.Name)
	hotel.City = strings.TrimSpace(hotel.City)
	if hotel.Name == "" || hotel.City == "" {
		return fmt.Errorf("%w: hotel name and city are required", ErrValidation)
	}
	hotel.ID = 0
	hotel.OwnerID = p.UserID
	hotel.Active = false
	hotel.Rooms = nil
	if err := s.DB.WithContext(ctx).Create(hotel).Error; err != nil {
		return fmt.Errorf("create hotel: %w", err)
	}
	log.Info().Uint("hotel", hotel.ID).Uint("owner", p.UserID).Msg("hotel created")
	return nil
}

// ActivateHotel opens the hotel for booking and fills the ledger of every room.
func (s *HotelService) ActivateHotel(ctx context.Context, p Principal, hotelID uint) (*models.Hotel, error) {
	var hotel models.Hotel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := loadOwnedHotel(tx, p, hotelID)
		if err != nil {
			return err
		}
		if h.Active {
			return fmt.Errorf("%w: hotel %d is already active", ErrInvalidState, h.ID)
		}
		if err := tx.Model(&h).Update("active", true).Error; err != nil {
			return fmt.Errorf("activate hotel %d: %w", h.ID, err)
		}
		h.Active = true

		var rooms []models.Room
		if err := tx.Where("hotel_id = ?", h.ID).Find(&rooms).Error; err != nil {
			return fmt.Errorf("list rooms of hotel %d: %w", h.ID, err)
		}
		for _, room := range rooms {
			if err := s.Inventory.InitializeRoomForAYear(tx, h, room); err != nil {
				return err
			}
		}
		h.Rooms = rooms
		hotel = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("hotel", hotel.ID).Int("rooms", len(hotel.Rooms)).Msg("hotel activated")
	return &hotel, nil
}

// DeleteHotel removes the hotel, its rooms and their ledger rows. Bookings are
// kept for reporting.
func (s *HotelService) DeleteHotel(ctx context.Context, p Principal, hotelID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hotel, err := loadOwnedHotel(tx, p, hotelID)
		if err != nil {
			return err
		}
		var rooms []models.Room
		if err := tx.Where("hotel_id = ?", hotel.ID).Find(&rooms).Error; err != nil {
			return fmt.Errorf("list rooms of hotel %d: %w", hotel.ID, err)
		}
		for _, room := range rooms {
			if err := s.Rooms.deleteRoom(tx, room); err != nil {
				return err
			}
		}
		if err := tx.Delete(&hotel).Error; err != nil {
			return fmt.Errorf("delete hotel %d: %w", hotel.ID, err)
		}
		log.Info().Uint("hotel", hotel.ID).Msg("hotel deleted")
		return nil
	})
}
