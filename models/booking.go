package models

import (
	"time"

	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingReserved        BookingStatus = "RESERVED"
	BookingGuestsAdded     BookingStatus = "GUESTS_ADDED"
	BookingPaymentsPending BookingStatus = "PAYMENTS_PENDING"
	BookingConfirmed       BookingStatus = "CONFIRMED"
	BookingCancelled       BookingStatus = "CANCELLED"
	BookingExpired         BookingStatus = "EXPIRED"
)

// Holding reports whether the booking still owns a soft hold on the ledger
// that lapses with time.
func (s BookingStatus) Holding() bool {
	return s == BookingReserved || s == BookingGuestsAdded || s == BookingPaymentsPending
}

// Booking covers CheckInDate..CheckOutDate inclusive. Rows are never deleted.
type Booking struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	HotelID          uint           `gorm:"index;not null" json:"hotelId"`
	RoomID           uint           `gorm:"index;not null" json:"roomId"`
	UserID           uint           `gorm:"index;not null" json:"userId"`
	CheckInDate      datatypes.Date `gorm:"not null" json:"checkInDate"`
	CheckOutDate     datatypes.Date `gorm:"not null" json:"checkOutDate"`
	RoomsCount       int            `gorm:"not null" json:"roomsCount"`
	Amount           float64        `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status           BookingStatus  `gorm:"size:32;index;not null" json:"status"`
	PaymentSessionID *string        `gorm:"size:128;uniqueIndex" json:"paymentSessionId,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	Guests []Guest `gorm:"many2many:booking_guests" json:"guests,omitempty"`
}

func (b Booking) CheckIn() time.Time  { return time.Time(b.CheckInDate) }
func (b Booking) CheckOut() time.Time { return time.Time(b.CheckOutDate) }
