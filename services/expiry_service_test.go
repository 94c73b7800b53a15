package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

func TestExpireBookingsReclaimsAbandonedHolds(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w := f.window(t, 1, 3)

	stale := f.book(t, customer, 1, 3, 2)
	f.requireCounts(t, w, 2, 0)

	expired, err := f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)

	f.clock.Advance(DefaultBookingExpiry + time.Second)
	fresh := f.book(t, customer, 1, 3, 1)

	expired, err = f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Equal(t, models.BookingExpired, f.status(t, stale.ID))
	assert.Equal(t, models.BookingReserved, f.status(t, fresh.ID))
	f.requireCounts(t, w, 1, 0)
	assert.Equal(t, []string{EventBookingExpired}, f.events.types())

	// a second sweep finds nothing left to do
	expired, err = f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
	f.requireCounts(t, w, 1, 0)
}

func TestExpireBookingsCoversGuestsAdded(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	g := models.Guest{Name: "Ana"}
	require.NoError(t, NewGuestService(f.db).CreateGuest(ctx, customer, &g))

	b := f.book(t, customer, 2, 2, 1)
	_, err := f.bookings.AddGuests(ctx, customer, b.ID, []uint{g.ID})
	require.NoError(t, err)

	f.clock.Advance(DefaultBookingExpiry + time.Second)
	expired, err := f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	f.requireCounts(t, f.window(t, 2, 2), 0, 0)
}

func TestExpireBookingsLeavesPaymentsAlone(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w := f.window(t, 1, 2)

	pending := f.book(t, customer, 1, 2, 1)
	_, err := f.bookings.InitiatePayments(ctx, customer, pending.ID)
	require.NoError(t, err)
	paid := f.confirmed(t, customer, 1, 2, 1)

	f.clock.Advance(time.Hour)
	expired, err := f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
	assert.Equal(t, models.BookingPaymentsPending, f.status(t, pending.ID))
	assert.Equal(t, models.BookingConfirmed, f.status(t, paid.ID))
	f.requireCounts(t, w, 1, 1)

	status, err := f.bookings.GetBookingStatus(ctx, customer, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingExpired, status)

	// a late capture still lands
	require.NoError(t, f.bookings.CapturePayment(ctx, PaymentEvent{
		Type: EventCheckoutCompleted, SessionID: f.sessionID(t, pending.ID),
	}))
	f.requireCounts(t, w, 0, 2)
	status, err = f.bookings.GetBookingStatus(ctx, customer, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, status)
}

func TestExpireBookingsContinuesPastFailedReclaim(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	badWindow, goodWindow := f.window(t, 1, 2), f.window(t, 4, 5)

	bad := f.book(t, customer, 1, 2, 1)
	good := f.book(t, customer, 4, 5, 1)
	f.clock.Advance(DefaultBookingExpiry + time.Second)

	const failStatus = "test:fail_booking_status"
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register(failStatus, func(tx *gorm.DB) {
		if b, ok := tx.Statement.Model.(*models.Booking); ok && b.ID == bad.ID {
			_ = tx.AddError(errors.New("status write rejected"))
		}
	}))

	expired, err := f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, good.ID, expired[0].ID)
	assert.Equal(t, models.BookingExpired, f.status(t, good.ID))
	assert.Equal(t, models.BookingReserved, f.status(t, bad.ID))
	f.requireCounts(t, goodWindow, 0, 0)
	// the failed booking rolled back with its hold intact
	f.requireCounts(t, badWindow, 1, 0)

	require.NoError(t, f.db.Callback().Update().Remove(failStatus))

	expired, err = f.expiry.ExpireBookings(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, bad.ID, expired[0].ID)
	assert.Equal(t, models.BookingExpired, f.status(t, bad.ID))
	f.requireCounts(t, badWindow, 0, 0)
	assert.Equal(t, []string{EventBookingExpired, EventBookingExpired}, f.events.types())
}

func TestExpireBookingsStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, customer, 1, 1, 1)
	f.clock.Advance(DefaultBookingExpiry + time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	expired, _ := f.expiry.ExpireBookings(ctx)
	assert.Empty(t, expired)
}

func TestRunEveryStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 8)
	done := make(chan struct{})
	go func() {
		runEvery(ctx, "test", 5*time.Millisecond, func(context.Context) error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return nil
		})
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}
