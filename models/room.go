package models

import (
	"time"

	"gorm.io/datatypes"
)

// Room is a room type of a hotel; TotalCount is how many physical rooms of this
// type exist and seeds the ledger capacity for every date.
type Room struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	HotelID    uint           `gorm:"index;not null" json:"hotelId"`
	Type       string         `gorm:"size:100;not null" json:"type"`
	BasePrice  float64        `gorm:"type:decimal(10,2);not null" json:"basePrice"`
	TotalCount int            `gorm:"not null" json:"totalCount"`
	Capacity   int            `gorm:"default:2" json:"capacity"`
	Photos     datatypes.JSON `json:"photos,omitempty"`
	Amenities  datatypes.JSON `json:"amenities,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
