package models

import (
	"time"

	"gorm.io/datatypes"
)

type HotelContactInfo struct {
	Address  string `gorm:"type:text" json:"address"`
	Phone    string `gorm:"size:50" json:"phone"`
	Email    string `gorm:"size:150" json:"email"`
	Location string `gorm:"size:255" json:"location"`
}

// Hotel only shows up in search once Active is set; activation creates the ledger.
type Hotel struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:255;not null" json:"name"`
	City        string           `gorm:"size:120;index;not null" json:"city"`
	Photos      datatypes.JSON   `json:"photos,omitempty"`
	Amenities   datatypes.JSON   `json:"amenities,omitempty"`
	ContactInfo HotelContactInfo `gorm:"embedded;embeddedPrefix:contact_" json:"contactInfo"`
	Active      bool             `gorm:"default:false" json:"active"`
	OwnerID     uint             `gorm:"index;not null" json:"ownerId"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Rooms []Room `gorm:"foreignKey:HotelID" json:"rooms,omitempty"`
}
