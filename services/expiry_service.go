// services/expiry_service.go
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

// ExpiryService reclaims ledger capacity held by bookings that never reached
// payment. It shares the booking service's clock, ledger and publisher.
type ExpiryService struct {
	Bookings *BookingService
}

func NewExpiryService(bookings *BookingService) *ExpiryService {
	return &ExpiryService{Bookings: bookings}
}

var expirableStatuses = []string{string(models.BookingReserved), string(models.BookingGuestsAdded)}

// ExpireBookings runs one sweep and returns the bookings it moved to EXPIRED.
// Each booking is reclaimed in its own transaction; a failure is logged and
// left for the next sweep.
func (s *ExpiryService) ExpireBookings(ctx context.Context) ([]models.Booking, error) {
	b := s.Bookings
	cutoff := b.now().Add(-b.Expiry)

	var candidates []models.Booking
	if err := b.DB.WithContext(ctx).
		Where("status IN ? AND created_at < ?", expirableStatuses, cutoff).
		Order("created_at ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	expired := make([]models.Booking, 0, len(candidates))
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		booking, ok, err := s.expireOne(ctx, c.ID)
		if err != nil {
			log.Error().Err(err).Uint("booking", c.ID).Msg("failed to expire booking")
			continue
		}
		if !ok {
			continue
		}
		expired = append(expired, booking)
		publishBestEffort(ctx, b.Events, newBookingEvent(EventBookingExpired, booking, b.now()))
	}

	if len(expired) > 0 {
		log.Info().Int("expired", len(expired)).Int("candidates", len(candidates)).Msg("expiry sweep finished")
	}
	return expired, nil
}

// expireOne re-reads the booking under lock; anything that moved on since the
// sweep query (paid, cancelled, expired by another sweep) is skipped.
func (s *ExpiryService) expireOne(ctx context.Context, id uint) (models.Booking, bool, error) {
	b := s.Bookings
	var booking models.Booking
	expired := false
	err := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockBooking(tx, id)
		if err != nil {
			return err
		}
		if (locked.Status != models.BookingReserved && locked.Status != models.BookingGuestsAdded) || !b.HasExpired(locked) {
			return nil
		}

		w := bookingWindow(locked)
		if _, err := b.Inventory.LockReserved(tx, locked.RoomID, w, locked.RoomsCount); err != nil {
			return err
		}
		affected, err := b.Inventory.ReleaseReserved(tx, locked.RoomID, w, locked.RoomsCount)
		if err != nil {
			return err
		}
		if affected != int64(w.Days()) {
			log.Warn().Uint("booking", locked.ID).Int64("rows", affected).Int("days", w.Days()).Msg("expiry released fewer reserved rows than days")
		}
		if err := setStatus(tx, &locked, models.BookingExpired); err != nil {
			return err
		}
		booking = locked
		expired = true
		return nil
	})
	return booking, expired, err
}

// Run sweeps every interval until ctx is cancelled.
func (s *ExpiryService) Run(ctx context.Context, interval time.Duration) {
	runEvery(ctx, "expiry reaper", interval, func(ctx context.Context) error {
		_, err := s.ExpireBookings(ctx)
		return err
	})
}

// runEvery calls fn once per tick; errors are logged and the loop continues.
func runEvery(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if interval <= 0 {
		log.Warn().Str("job", name).Msg("job disabled, interval is not positive")
		return
	}
	log.Info().Str("job", name).Dur("interval", interval).Msg("job started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("job", name).Msg("job stopped")
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Error().Err(err).Str("job", name).Msg("job run failed")
			}
		}
	}
}
