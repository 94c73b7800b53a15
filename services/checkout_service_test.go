package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-inventory/models"
)

func TestSandboxGateway(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway("https://pay.test/")

	_, err := g.CreateCheckoutSession(ctx, CheckoutRequest{BookingID: 1})
	require.Error(t, err)

	s, err := g.CreateCheckoutSession(ctx, CheckoutRequest{BookingID: 1, Amount: 10})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "cs_"))
	assert.Equal(t, "https://pay.test/checkout/"+s.ID, s.URL)

	require.Error(t, g.Refund(ctx, "pi_foreign"))
	require.NoError(t, g.Refund(ctx, s.ID))
	assert.Equal(t, 1, g.Refunds(s.ID))
}

func TestSandboxRefundsSessionsFromBeforeRestart(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	w := f.window(t, 1, 2)

	b := f.confirmed(t, customer, 1, 2, 1)
	session := f.sessionID(t, b.ID)

	restarted := NewSandboxGateway("https://pay.test")
	f.bookings.Payments = restarted

	require.NoError(t, f.bookings.CancelBooking(ctx, customer, b.ID))
	assert.Equal(t, models.BookingCancelled, f.status(t, b.ID))
	f.requireCounts(t, w, 0, 0)
	assert.Equal(t, 1, restarted.Refunds(session))
}

type brokenPublisher struct{ calls int }

func (b *brokenPublisher) Publish(context.Context, BookingEvent) error {
	b.calls++
	return errors.New("broker down")
}

func TestPublishBestEffortSwallowsErrors(t *testing.T) {
	pub := &brokenPublisher{}
	b := models.Booking{ID: 7, Status: models.BookingConfirmed, RoomsCount: 2}
	ev := newBookingEvent(EventBookingConfirmed, b, newTestClock().Now())

	assert.NotPanics(t, func() { publishBestEffort(context.Background(), pub, ev) })
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, uint(7), ev.BookingID)
	assert.Equal(t, "0001-01-01", ev.CheckInDate)
}

func TestCaptureSurvivesBrokenPublisher(t *testing.T) {
	f := newFixture(t, 2)
	pub := &brokenPublisher{}
	f.bookings.Events = pub

	b := f.confirmed(t, customer, 1, 1, 1)
	assert.Equal(t, models.BookingConfirmed, f.status(t, b.ID))
	assert.Equal(t, 1, pub.calls)
}
