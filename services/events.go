package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel-inventory/models"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
)

type BookingEvent struct {
	Type         string               `json:"type"`
	BookingID    uint                 `json:"booking_id"`
	HotelID      uint                 `json:"hotel_id"`
	RoomID       uint                 `json:"room_id"`
	UserID       uint                 `json:"user_id"`
	Status       models.BookingStatus `json:"status"`
	RoomsCount   int                  `json:"rooms_count"`
	Amount       float64              `json:"amount"`
	CheckInDate  string               `json:"check_in_date"`
	CheckOutDate string               `json:"check_out_date"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

func newBookingEvent(eventType string, b models.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:         eventType,
		BookingID:    b.ID,
		HotelID:      b.HotelID,
		RoomID:       b.RoomID,
		UserID:       b.UserID,
		Status:       b.Status,
		RoomsCount:   b.RoomsCount,
		Amount:       b.Amount,
		CheckInDate:  b.CheckIn().Format(dateLayout),
		CheckOutDate: b.CheckOut().Format(dateLayout),
		OccurredAt:   at,
	}
}

// EventPublisher receives lifecycle events after the transition has committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// publishBestEffort never fails the caller; the transition is already durable.
func publishBestEffort(ctx context.Context, pub EventPublisher, ev BookingEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("type", ev.Type).Uint("booking", ev.BookingID).Msg("publish booking event failed")
	}
}
