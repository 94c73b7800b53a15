// services/inventory_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-inventory/models"
)

const inventoryHorizonYears = 1

// InventoryService owns the ledger: one row per (room, date). Every mutating
// primitive takes the caller's transaction and re-validates capacity in its
// WHERE clause, so a stale read turns into zero affected rows instead of an
// overbooking. Callers compare the affected count with Window.Days().
type InventoryService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{DB: db, Now: time.Now}
}

func (s *InventoryService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func inWindow(tx *gorm.DB, roomID uint, w Window) *gorm.DB {
	return tx.Where("room_id = ? AND date BETWEEN ? AND ?", roomID, w.Start, w.End)
}

func lockRows(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("date ASC")
}

// ---------------------------
// Locking reads
// ---------------------------

// LockAndFindAvailable locks the rows of the window that are open and still
// have `count` free rooms. Fewer rows than days means the window is unavailable.
func (s *InventoryService) LockAndFindAvailable(tx *gorm.DB, roomID uint, w Window, count int) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := lockRows(inWindow(tx, roomID, w)).
		Where("closed = ? AND (total_count - booked_count - reserved_count) >= ?", false, count).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lock available inventory for room %d %s: %w", roomID, w, err)
	}
	return rows, nil
}

// LockReserved locks rows that still carry at least `count` reserved rooms.
func (s *InventoryService) LockReserved(tx *gorm.DB, roomID uint, w Window, count int) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := lockRows(inWindow(tx, roomID, w)).
		Where("reserved_count >= ?", count).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lock reserved inventory for room %d %s: %w", roomID, w, err)
	}
	return rows, nil
}

// LockBooked locks rows that still carry at least `count` booked rooms.
func (s *InventoryService) LockBooked(tx *gorm.DB, roomID uint, w Window, count int) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := lockRows(inWindow(tx, roomID, w)).
		Where("booked_count >= ?", count).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lock booked inventory for room %d %s: %w", roomID, w, err)
	}
	return rows, nil
}

// LockWindow locks every row of the window regardless of its counters.
func (s *InventoryService) LockWindow(tx *gorm.DB, roomID uint, w Window) ([]models.Inventory, error) {
	var rows []models.Inventory
	if err := lockRows(inWindow(tx, roomID, w)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lock inventory for room %d %s: %w", roomID, w, err)
	}
	return rows, nil
}

// ---------------------------
// Conditional updates
// ---------------------------

// Reserve adds a soft hold of `count` rooms on every row that can still take it.
func (s *InventoryService) Reserve(tx *gorm.DB, roomID uint, w Window, count int) (int64, error) {
	res := inWindow(tx.Model(&models.Inventory{}), roomID, w).
		Where("closed = ? AND (total_count - booked_count - reserved_count) >= ?", false, count).
		Update("reserved_count", gorm.Expr("reserved_count + ?", count))
	if res.Error != nil {
		return 0, fmt.Errorf("reserve room %d %s: %w", roomID, w, res.Error)
	}
	return res.RowsAffected, nil
}

// Confirm turns `count` reserved rooms into booked rooms.
func (s *InventoryService) Confirm(tx *gorm.DB, roomID uint, w Window, count int) (int64, error) {
	res := inWindow(tx.Model(&models.Inventory{}), roomID, w).
		Where("reserved_count >= ? AND (total_count - booked_count) >= ?", count, count).
		Updates(map[string]interface{}{
			"reserved_count": gorm.Expr("reserved_count - ?", count),
			"booked_count":   gorm.Expr("booked_count + ?", count),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("confirm room %d %s: %w", roomID, w, res.Error)
	}
	return res.RowsAffected, nil
}

// CancelBooked gives `count` booked rooms back to the free pool.
func (s *InventoryService) CancelBooked(tx *gorm.DB, roomID uint, w Window, count int) (int64, error) {
	res := inWindow(tx.Model(&models.Inventory{}), roomID, w).
		Where("booked_count >= ?", count).
		Update("booked_count", gorm.Expr("booked_count - ?", count))
	if res.Error != nil {
		return 0, fmt.Errorf("cancel booked room %d %s: %w", roomID, w, res.Error)
	}
	return res.RowsAffected, nil
}

// ReleaseReserved drops a soft hold without touching booked rooms. Rows that no
// longer carry the hold are left alone, so a repeated release is a no-op there.
func (s *InventoryService) ReleaseReserved(tx *gorm.DB, roomID uint, w Window, count int) (int64, error) {
	res := inWindow(tx.Model(&models.Inventory{}), roomID, w).
		Where("reserved_count >= ?", count).
		Update("reserved_count", gorm.Expr("reserved_count - ?", count))
	if res.Error != nil {
		return 0, fmt.Errorf("release reserved room %d %s: %w", roomID, w, res.Error)
	}
	return res.RowsAffected, nil
}

// UpdatePricing sets manual overrides on the whole window after locking it.
func (s *InventoryService) UpdatePricing(tx *gorm.DB, roomID uint, w Window, surgeFactor float64, closed bool) (int64, error) {
	if surgeFactor <= 0 {
		return 0, fmt.Errorf("%w: surge factor must be positive", ErrValidation)
	}
	if _, err := s.LockWindow(tx, roomID, w); err != nil {
		return 0, err
	}
	res := inWindow(tx.Model(&models.Inventory{}), roomID, w).
		Updates(map[string]interface{}{
			"surge_factor": surgeFactor,
			"closed":       closed,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("update pricing room %d %s: %w", roomID, w, res.Error)
	}
	return res.RowsAffected, nil
}

func requireWholeWindow(affected int64, w Window, op string, roomID uint) error {
	if affected != int64(w.Days()) {
		return fmt.Errorf("%w: %s touched %d of %d days for room %d %s",
			ErrCapacityConflict, op, affected, w.Days(), roomID, w)
	}
	return nil
}

// ---------------------------
// Ledger lifecycle
// ---------------------------

// InitializeRoom creates one ledger row per day of w for the room.
func (s *InventoryService) InitializeRoom(tx *gorm.DB, hotel models.Hotel, room models.Room, w Window) error {
	rows := make([]models.Inventory, 0, w.Days())
	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		rows = append(rows, models.Inventory{
			HotelID:     hotel.ID,
			RoomID:      room.ID,
			Date:        datatypes.Date(day),
			City:        hotel.City,
			TotalCount:  room.TotalCount,
			SurgeFactor: 1,
			BasePrice:   room.BasePrice,
			Price:       room.BasePrice,
		})
	}
	if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: inventory already initialized for room %d", ErrInvalidState, room.ID)
		}
		return fmt.Errorf("initialize inventory for room %d: %w", room.ID, err)
	}
	log.Info().Uint("room", room.ID).Uint("hotel", hotel.ID).Str("window", w.String()).Msg("inventory initialized")
	return nil
}

// InitializeRoomForAYear fills the ledger from today up to the same date next year.
func (s *InventoryService) InitializeRoomForAYear(tx *gorm.DB, hotel models.Hotel, room models.Room) error {
	today := DateOnly(s.now())
	return s.InitializeRoom(tx, hotel, room, Window{Start: today, End: today.AddDate(inventoryHorizonYears, 0, 0)})
}

func (s *InventoryService) DeleteAllInventories(tx *gorm.DB, roomID uint) error {
	if err := tx.Where("room_id = ?", roomID).Delete(&models.Inventory{}).Error; err != nil {
		return fmt.Errorf("delete inventory for room %d: %w", roomID, err)
	}
	return nil
}

// ---------------------------
// Owner-facing operations
// ---------------------------

type UpdateInventoryRequest struct {
	Start       time.Time
	End         time.Time
	SurgeFactor float64
	Closed      bool
}

func (s *InventoryService) ownedRoom(tx *gorm.DB, p Principal, roomID uint) (models.Room, error) {
	var room models.Room
	if err := tx.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return room, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		return room, fmt.Errorf("find room %d: %w", roomID, err)
	}
	var hotel models.Hotel
	if err := tx.First(&hotel, room.HotelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return room, fmt.Errorf("%w: hotel %d", ErrNotFound, room.HotelID)
		}
		return room, fmt.Errorf("find hotel %d: %w", room.HotelID, err)
	}
	return room, p.mustOwn(hotel.OwnerID, "room", roomID)
}

// GetRoomInventory lists the ledger of a room in date order; owner only.
func (s *InventoryService) GetRoomInventory(ctx context.Context, p Principal, roomID uint) ([]models.Inventory, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.ownedRoom(db, p, roomID); err != nil {
		return nil, err
	}
	var rows []models.Inventory
	if err := db.Where("room_id = ?", roomID).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list inventory for room %d: %w", roomID, err)
	}
	return rows, nil
}

// UpdateInventory applies surge/closed overrides to a window; owner only.
func (s *InventoryService) UpdateInventory(ctx context.Context, p Principal, roomID uint, req UpdateInventoryRequest) (int64, error) {
	w, err := NewWindow(req.Start, req.End)
	if err != nil {
		return 0, err
	}
	log.Info().Uint("room", roomID).Str("window", w.String()).
		Float64("surge", req.SurgeFactor).Bool("closed", req.Closed).Msg("updating inventory")

	var affected int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedRoom(tx, p, roomID); err != nil {
			return err
		}
		n, err := s.UpdatePricing(tx, roomID, w, req.SurgeFactor, req.Closed)
		affected = n
		return err
	})
	return affected, err
}
