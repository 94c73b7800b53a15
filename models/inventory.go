package models

import (
	"time"

	"gorm.io/datatypes"
)

// Inventory is one ledger row: the counters of a room type on one calendar date.
// reserved_count + booked_count never exceeds total_count.
type Inventory struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	HotelID       uint           `gorm:"index;not null" json:"hotelId"`
	RoomID        uint           `gorm:"not null;uniqueIndex:idx_inventory_room_date" json:"roomId"`
	Date          datatypes.Date `gorm:"not null;uniqueIndex:idx_inventory_room_date;index" json:"date"`
	City          string         `gorm:"size:120;index;not null" json:"city"`
	TotalCount    int            `gorm:"not null" json:"totalCount"`
	BookedCount   int            `gorm:"not null;default:0" json:"bookedCount"`
	ReservedCount int            `gorm:"not null;default:0" json:"reservedCount"`
	SurgeFactor   float64        `gorm:"type:decimal(5,2);not null;default:1" json:"surgeFactor"`
	BasePrice     float64        `gorm:"type:decimal(10,2);not null" json:"basePrice"`
	Price         float64        `gorm:"type:decimal(10,2);not null" json:"price"` // browse snapshot, refreshed by the price job
	Closed        bool           `gorm:"not null;default:false" json:"closed"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Free is the capacity not yet held or sold.
func (i Inventory) Free() int {
	return i.TotalCount - i.BookedCount - i.ReservedCount
}

func (i Inventory) Day() time.Time {
	return time.Time(i.Date)
}
