// services/room_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

// RoomService manages the room types of owned hotels and keeps each room's
// ledger in step with the hotel's active flag.
type RoomService struct {
	DB        *gorm.DB
	Inventory *InventoryService
}

func NewRoomService(db *gorm.DB, inventory *InventoryService) *RoomService {
	return &RoomService{DB: db, Inventory: inventory}
}

// CreateRoom adds a room type to an owned hotel. If the hotel already takes
// bookings the room's ledger is created right away.
func (s *RoomService) CreateRoom(ctx context.Context, p Principal, hotelID uint, room *models.Room) error {
	room.Type = strings.TrimSpace(room.Type)
	if room.Type == "" {
		return fmt.Errorf("%w: room type is required", ErrValidation)
	}
	if room.TotalCount <= 0 || room.BasePrice <= 0 {
		return fmt.Errorf("%w: totalCount and basePrice must be positive", ErrValidation)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hotel, err := loadOwnedHotel(tx, p, hotelID)
		if err != nil {
			return err
		}
		room.ID = 0
		room.HotelID = hotel.ID
		if err := tx.Create(room).Error; err != nil {
			return fmt.Errorf("create room for hotel %d: %w", hotel.ID, err)
		}
		if hotel.Active {
			if err := s.Inventory.InitializeRoomForAYear(tx, hotel, *room); err != nil {
				return err
			}
		}
		log.Info().Uint("room", room.ID).Uint("hotel", hotel.ID).Bool("ledger", hotel.Active).Msg("room created")
		return nil
	})
}

// DeleteRoom removes a room type and its ledger rows.
func (s *RoomService) DeleteRoom(ctx context.Context, p Principal, roomID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.Inventory.ownedRoom(tx, p, roomID)
		if err != nil {
			return err
		}
		return s.deleteRoom(tx, room)
	})
}

func (s *RoomService) deleteRoom(tx *gorm.DB, room models.Room) error {
	if err := s.Inventory.DeleteAllInventories(tx, room.ID); err != nil {
		return err
	}
	if err := tx.Delete(&room).Error; err != nil {
		return fmt.Errorf("delete room %d: %w", room.ID, err)
	}
	log.Info().Uint("room", room.ID).Uint("hotel", room.HotelID).Msg("room deleted")
	return nil
}
