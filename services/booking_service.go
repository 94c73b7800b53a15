// services/booking_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-inventory/models"
)

const DefaultBookingExpiry = 10 * time.Minute

// BookingService drives a booking through its states and keeps the ledger in
// step. Every transition that touches the ledger runs in one transaction that
// locks the rows first and then applies the guarded update.
type BookingService struct {
	DB          *gorm.DB
	Inventory   *InventoryService
	Payments    PaymentGateway
	Events      EventPublisher
	Pricing     PricingConfig
	FrontendURL string
	Expiry      time.Duration
	Now         func() time.Time
}

type BookingOptions struct {
	Pricing     PricingConfig
	FrontendURL string
	Expiry      time.Duration
	Now         func() time.Time
}

func NewBookingService(db *gorm.DB, inventory *InventoryService, payments PaymentGateway, events EventPublisher, opts BookingOptions) *BookingService {
	if events == nil {
		events = NoopPublisher{}
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultBookingExpiry
	}
	return &BookingService{
		DB:          db,
		Inventory:   inventory,
		Payments:    payments,
		Events:      events,
		Pricing:     opts.Pricing,
		FrontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		Expiry:      opts.Expiry,
		Now:         opts.Now,
	}
}

func (s *BookingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// HasExpired is true once the hold window since creation has elapsed.
func (s *BookingService) HasExpired(b models.Booking) bool {
	return s.now().After(b.CreatedAt.Add(s.Expiry))
}

// effectiveStatus is what callers must see: a holding booking past its
// window is expired even before the reaper gets to it. A PAYMENTS_PENDING
// booking reported this way can still be confirmed by a late capture.
func (s *BookingService) effectiveStatus(b models.Booking) models.BookingStatus {
	if b.Status.Holding() && s.HasExpired(b) {
		return models.BookingExpired
	}
	return b.Status
}

func bookingWindow(b models.Booking) Window {
	return Window{Start: DateOnly(b.CheckIn()), End: DateOnly(b.CheckOut())}
}

func notFoundOr(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
	}
	return fmt.Errorf("find %s %v: %w", what, id, err)
}

// lockBooking takes the booking row itself, which serializes user actions
// against the reaper working on the same booking.
func lockBooking(tx *gorm.DB, id uint) (models.Booking, error) {
	var b models.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error; err != nil {
		return b, notFoundOr(err, "booking", id)
	}
	return b, nil
}

func setStatus(tx *gorm.DB, b *models.Booking, status models.BookingStatus) error {
	if err := tx.Model(b).Update("status", status).Error; err != nil {
		return fmt.Errorf("set booking %d to %s: %w", b.ID, status, err)
	}
	b.Status = status
	return nil
}

// ---------------------------
// 1) Initiate
// ---------------------------

type BookingRequest struct {
	HotelID    uint
	RoomID     uint
	CheckIn    time.Time
	CheckOut   time.Time
	RoomsCount int
}

func (r BookingRequest) validate(today time.Time) (Window, error) {
	if r.HotelID == 0 || r.RoomID == 0 {
		return Window{}, fmt.Errorf("%w: hotelId and roomId are required", ErrValidation)
	}
	if r.RoomsCount <= 0 {
		return Window{}, fmt.Errorf("%w: roomsCount must be at least 1", ErrValidation)
	}
	w, err := NewWindow(r.CheckIn, r.CheckOut)
	if err != nil {
		return Window{}, err
	}
	if w.Start.Before(DateOnly(today)) {
		return Window{}, fmt.Errorf("%w: check-in date %s is in the past", ErrValidation, w.Start.Format(dateLayout))
	}
	return w, nil
}

// InitiateBooking locks the window, reserves the rooms and records the quote.
func (s *BookingService) InitiateBooking(ctx context.Context, p Principal, req BookingRequest) (*models.Booking, error) {
	now := s.now()
	w, err := req.validate(now)
	if err != nil {
		return nil, err
	}
	log.Info().Uint("hotel", req.HotelID).Uint("room", req.RoomID).Str("window", w.String()).
		Int("rooms", req.RoomsCount).Uint("user", p.UserID).Msg("initialising booking")

	var booking models.Booking
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hotel models.Hotel
		if err := tx.First(&hotel, req.HotelID).Error; err != nil {
			return notFoundOr(err, "hotel", req.HotelID)
		}
		if !hotel.Active {
			return fmt.Errorf("%w: hotel %d is not accepting bookings", ErrInvalidState, hotel.ID)
		}
		var room models.Room
		if err := tx.Where("id = ? AND hotel_id = ?", req.RoomID, hotel.ID).First(&room).Error; err != nil {
			return notFoundOr(err, "room", req.RoomID)
		}

		rows, err := s.Inventory.LockAndFindAvailable(tx, room.ID, w, req.RoomsCount)
		if err != nil {
			return err
		}
		if len(rows) != w.Days() {
			return fmt.Errorf("%w: room %d has capacity on %d of %d days", ErrCapacityConflict, room.ID, len(rows), w.Days())
		}
		affected, err := s.Inventory.Reserve(tx, room.ID, w, req.RoomsCount)
		if err != nil {
			return err
		}
		if err := requireWholeWindow(affected, w, "reserve", room.ID); err != nil {
			return err
		}

		booking = models.Booking{
			HotelID:      hotel.ID,
			RoomID:       room.ID,
			UserID:       p.UserID,
			CheckInDate:  datatypes.Date(w.Start),
			CheckOutDate: datatypes.Date(w.End),
			RoomsCount:   req.RoomsCount,
			Amount:       s.Pricing.PipelineAt(now).BookingAmount(rows, req.RoomsCount),
			Status:       models.BookingReserved,
			CreatedAt:    now,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking", booking.ID).Float64("amount", booking.Amount).Msg("booking reserved")
	return &booking, nil
}

// ---------------------------
// 2) Guests
// ---------------------------

func (s *BookingService) AddGuests(ctx context.Context, p Principal, bookingID uint, guestIDs []uint) (*models.Booking, error) {
	if len(guestIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one guest id is required", ErrValidation)
	}
	log.Info().Uint("booking", bookingID).Int("guests", len(guestIDs)).Msg("adding guests")

	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := p.mustOwn(b.UserID, "booking", b.ID); err != nil {
			return err
		}
		if s.HasExpired(b) {
			return fmt.Errorf("%w: booking %d", ErrBookingExpired, b.ID)
		}
		if b.Status != models.BookingReserved {
			return fmt.Errorf("%w: booking %d is %s, guests can only be added while RESERVED", ErrInvalidState, b.ID, b.Status)
		}

		unique := make(map[uint]struct{}, len(guestIDs))
		for _, id := range guestIDs {
			unique[id] = struct{}{}
		}
		var guests []models.Guest
		if err := tx.Where("id IN ?", guestIDs).Find(&guests).Error; err != nil {
			return fmt.Errorf("find guests: %w", err)
		}
		if len(guests) != len(unique) {
			return fmt.Errorf("%w: %d of %d guests", ErrNotFound, len(unique)-len(guests), len(unique))
		}
		for _, g := range guests {
			if err := p.mustOwn(g.UserID, "guest", g.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(&b).Association("Guests").Append(&guests); err != nil {
			return fmt.Errorf("attach guests to booking %d: %w", b.ID, err)
		}
		if err := setStatus(tx, &b, models.BookingGuestsAdded); err != nil {
			return err
		}
		return tx.Preload("Guests").First(&booking, b.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ---------------------------
// 3) Payments
// ---------------------------

func (s *BookingService) paymentStatusURL(bookingID uint) string {
	return fmt.Sprintf("%s/payments/%d/status", s.FrontendURL, bookingID)
}

// InitiatePayments opens a checkout session and returns its redirect URL. The
// booking row is locked so the reaper cannot expire it underneath us.
func (s *BookingService) InitiatePayments(ctx context.Context, p Principal, bookingID uint) (string, error) {
	var sessionURL string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := p.mustOwn(b.UserID, "booking", b.ID); err != nil {
			return err
		}
		if s.HasExpired(b) {
			return fmt.Errorf("%w: booking %d", ErrBookingExpired, b.ID)
		}
		if b.Status != models.BookingReserved && b.Status != models.BookingGuestsAdded {
			return fmt.Errorf("%w: booking %d is %s, payment cannot be initiated", ErrInvalidState, b.ID, b.Status)
		}

		session, err := s.Payments.CreateCheckoutSession(ctx, CheckoutRequest{
			BookingID:   b.ID,
			Amount:      b.Amount,
			Description: fmt.Sprintf("Booking ID: %d", b.ID),
			SuccessURL:  s.paymentStatusURL(b.ID),
			FailureURL:  s.paymentStatusURL(b.ID),
		})
		if err != nil {
			return fmt.Errorf("%w: create checkout session for booking %d: %v", ErrPayment, b.ID, err)
		}

		if err := tx.Model(&b).Updates(map[string]interface{}{
			"payment_session_id": session.ID,
			"status":             models.BookingPaymentsPending,
		}).Error; err != nil {
			return fmt.Errorf("mark booking %d payments pending: %w", b.ID, err)
		}
		sessionURL = session.URL
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Info().Uint("booking", bookingID).Msg("payment session created")
	return sessionURL, nil
}

// CapturePayment confirms the booking whose session completed and moves its
// rooms from reserved to booked. Repeated deliveries are acknowledged.
func (s *BookingService) CapturePayment(ctx context.Context, ev PaymentEvent) error {
	if ev.Type != EventCheckoutCompleted {
		log.Warn().Str("type", ev.Type).Msg("unhandled payment event type")
		return nil
	}
	if strings.TrimSpace(ev.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrValidation)
	}

	var booking models.Booking
	transitioned := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_session_id = ?", ev.SessionID).
			First(&booking).Error; err != nil {
			return notFoundOr(err, "booking for session", ev.SessionID)
		}
		if booking.Status == models.BookingConfirmed {
			return nil
		}
		if booking.Status != models.BookingPaymentsPending {
			return fmt.Errorf("%w: booking %d is %s, payment cannot be captured", ErrInvalidState, booking.ID, booking.Status)
		}

		w := bookingWindow(booking)
		if _, err := s.Inventory.LockReserved(tx, booking.RoomID, w, booking.RoomsCount); err != nil {
			return err
		}
		affected, err := s.Inventory.Confirm(tx, booking.RoomID, w, booking.RoomsCount)
		if err != nil {
			return err
		}
		if err := requireWholeWindow(affected, w, "confirm", booking.RoomID); err != nil {
			return err
		}
		transitioned = true
		return setStatus(tx, &booking, models.BookingConfirmed)
	})
	if err != nil {
		return err
	}
	if transitioned {
		log.Info().Uint("booking", booking.ID).Msg("booking confirmed")
		publishBestEffort(ctx, s.Events, newBookingEvent(EventBookingConfirmed, booking, s.now()))
	}
	return nil
}

// ---------------------------
// 4) Cancellation
// ---------------------------

// CancelBooking releases the rooms of a confirmed or payment-pending booking.
// A confirmed booking is refunded; a refund failure rolls the whole
// cancellation back and is returned to the caller.
func (s *BookingService) CancelBooking(ctx context.Context, p Principal, bookingID uint) error {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := p.mustOwn(b.UserID, "booking", b.ID); err != nil {
			return err
		}
		w := bookingWindow(b)

		switch b.Status {
		case models.BookingConfirmed:
			if _, err := s.Inventory.LockBooked(tx, b.RoomID, w, b.RoomsCount); err != nil {
				return err
			}
			affected, err := s.Inventory.CancelBooked(tx, b.RoomID, w, b.RoomsCount)
			if err != nil {
				return err
			}
			if affected != int64(w.Days()) {
				log.Warn().Uint("booking", b.ID).Int64("rows", affected).Int("days", w.Days()).Msg("cancel released fewer booked rows than days")
			}
			if err := setStatus(tx, &b, models.BookingCancelled); err != nil {
				return err
			}
			if b.PaymentSessionID == nil {
				return fmt.Errorf("%w: booking %d has no payment session to refund", ErrPayment, b.ID)
			}
			if err := s.Payments.Refund(ctx, *b.PaymentSessionID); err != nil {
				return fmt.Errorf("%w: refund booking %d: %v", ErrPayment, b.ID, err)
			}

		case models.BookingPaymentsPending:
			if _, err := s.Inventory.LockReserved(tx, b.RoomID, w, b.RoomsCount); err != nil {
				return err
			}
			affected, err := s.Inventory.ReleaseReserved(tx, b.RoomID, w, b.RoomsCount)
			if err != nil {
				return err
			}
			if affected != int64(w.Days()) {
				log.Warn().Uint("booking", b.ID).Int64("rows", affected).Int("days", w.Days()).Msg("cancel released fewer reserved rows than days")
			}
			if err := setStatus(tx, &b, models.BookingCancelled); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: only confirmed or payment-pending bookings can be cancelled, booking %d is %s",
				ErrInvalidState, b.ID, b.Status)
		}
		booking = b
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Uint("booking", booking.ID).Msg("booking cancelled")
	publishBestEffort(ctx, s.Events, newBookingEvent(EventBookingCancelled, booking, s.now()))
	return nil
}

// ---------------------------
// Queries
// ---------------------------

func (s *BookingService) GetBookingStatus(ctx context.Context, p Principal, bookingID uint) (models.BookingStatus, error) {
	var b models.Booking
	if err := s.DB.WithContext(ctx).First(&b, bookingID).Error; err != nil {
		return "", notFoundOr(err, "booking", bookingID)
	}
	if err := p.mustOwn(b.UserID, "booking", b.ID); err != nil {
		return "", err
	}
	return s.effectiveStatus(b), nil
}

func (s *BookingService) GetMyBookings(ctx context.Context, p Principal) ([]models.Booking, error) {
	var list []models.Booking
	if err := s.DB.WithContext(ctx).
		Preload("Guests").
		Where("user_id = ?", p.UserID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bookings for user %d: %w", p.UserID, err)
	}
	for i := range list {
		list[i].Status = s.effectiveStatus(list[i])
	}
	return list, nil
}

func (s *BookingService) ownedHotel(db *gorm.DB, p Principal, hotelID uint) (models.Hotel, error) {
	var hotel models.Hotel
	if err := db.First(&hotel, hotelID).Error; err != nil {
		return hotel, notFoundOr(err, "hotel", hotelID)
	}
	return hotel, p.mustOwn(hotel.OwnerID, "hotel", hotelID)
}

// GetHotelBookings lists every booking of a hotel for its owner.
func (s *BookingService) GetHotelBookings(ctx context.Context, p Principal, hotelID uint) ([]models.Booking, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.ownedHotel(db, p, hotelID); err != nil {
		return nil, err
	}
	var list []models.Booking
	if err := db.Preload("Guests").Where("hotel_id = ?", hotelID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bookings for hotel %d: %w", hotelID, err)
	}
	for i := range list {
		list[i].Status = s.effectiveStatus(list[i])
	}
	return list, nil
}

type HotelReport struct {
	BookingCount int64   `json:"bookingCount"`
	TotalRevenue float64 `json:"totalRevenue"`
	AvgRevenue   float64 `json:"avgRevenue"`
}

// HotelReport aggregates confirmed bookings created between the two dates,
// both inclusive.
func (s *BookingService) HotelReport(ctx context.Context, p Principal, hotelID uint, start, end time.Time) (HotelReport, error) {
	w, err := NewWindow(start, end)
	if err != nil {
		return HotelReport{}, err
	}
	db := s.DB.WithContext(ctx)
	if _, err := s.ownedHotel(db, p, hotelID); err != nil {
		return HotelReport{}, err
	}
	log.Info().Uint("hotel", hotelID).Str("window", w.String()).Msg("generating hotel report")

	var agg struct {
		BookingCount int64
		TotalRevenue float64
	}
	if err := db.Model(&models.Booking{}).
		Select("COUNT(*) AS booking_count, COALESCE(SUM(amount), 0) AS total_revenue").
		Where("hotel_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			hotelID, string(models.BookingConfirmed), w.Start, w.End.AddDate(0, 0, 1)).
		Scan(&agg).Error; err != nil {
		return HotelReport{}, fmt.Errorf("aggregate report for hotel %d: %w", hotelID, err)
	}

	report := HotelReport{BookingCount: agg.BookingCount, TotalRevenue: roundMoney(agg.TotalRevenue)}
	if agg.BookingCount > 0 {
		report.AvgRevenue = roundMoney(agg.TotalRevenue / float64(agg.BookingCount))
	}
	return report, nil
}
