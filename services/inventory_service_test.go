package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

func TestLedgerPrimitivesRoundTrip(t *testing.T) {
	f := newFixture(t, 4)
	w := f.window(t, 5, 7)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		rows, err := f.inventory.LockAndFindAvailable(tx, f.room.ID, w, 3)
		require.NoError(t, err)
		require.Len(t, rows, w.Days())

		n, err := f.inventory.Reserve(tx, f.room.ID, w, 3)
		require.NoError(t, err)
		require.NoError(t, requireWholeWindow(n, w, "reserve", f.room.ID))
		return nil
	}))
	f.requireCounts(t, w, 3, 0)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		n, err := f.inventory.Confirm(tx, f.room.ID, w, 3)
		require.NoError(t, err)
		assert.EqualValues(t, w.Days(), n)
		return nil
	}))
	f.requireCounts(t, w, 0, 3)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		n, err := f.inventory.CancelBooked(tx, f.room.ID, w, 3)
		require.NoError(t, err)
		assert.EqualValues(t, w.Days(), n)
		return nil
	}))
	f.requireCounts(t, w, 0, 0)
}

// The guarded updates must hold even without the lock step in front of them.
func TestReserveWithoutLockRespectsCapacity(t *testing.T) {
	f := newFixture(t, 2)
	w := f.window(t, 1, 3)
	narrow := f.window(t, 2, 2)

	n, err := f.inventory.Reserve(f.db, f.room.ID, narrow, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.inventory.Reserve(f.db, f.room.ID, w, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "the full day must be skipped")
	require.ErrorIs(t, requireWholeWindow(n, w, "reserve", f.room.ID), ErrCapacityConflict)

	rows := f.rows(t, w)
	assert.Equal(t, 1, rows[0].ReservedCount)
	assert.Equal(t, 2, rows[1].ReservedCount)
	assert.Equal(t, 1, rows[2].ReservedCount)

	n, err = f.inventory.Confirm(f.db, f.room.ID, narrow, 3)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReleaseReservedIsIdempotent(t *testing.T) {
	f := newFixture(t, 5)
	w := f.window(t, 1, 2)

	_, err := f.inventory.Reserve(f.db, f.room.ID, w, 2)
	require.NoError(t, err)

	n, err := f.inventory.ReleaseReserved(f.db, f.room.ID, w, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.inventory.ReleaseReserved(f.db, f.room.ID, w, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
	f.requireCounts(t, w, 0, 0)

	n, err = f.inventory.CancelBooked(f.db, f.room.ID, w, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
	f.requireCounts(t, w, 0, 0)
}

func TestClosedDatesBlockAdmissionOnly(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w := f.window(t, 1, 3)

	b := f.book(t, customer, 1, 3, 1)
	_, err := f.inventory.UpdateInventory(ctx, owner, f.room.ID, UpdateInventoryRequest{
		Start: f.clock.day(2), End: f.clock.day(2), SurgeFactor: 1, Closed: true,
	})
	require.NoError(t, err)

	_, err = f.bookings.InitiateBooking(ctx, customer, BookingRequest{
		HotelID: f.hotel.ID, RoomID: f.room.ID,
		CheckIn: f.clock.day(1), CheckOut: f.clock.day(3), RoomsCount: 1,
	})
	require.ErrorIs(t, err, ErrCapacityConflict)

	// holds on a closed date can still be paid for
	_, err = f.bookings.InitiatePayments(ctx, customer, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.bookings.CapturePayment(ctx, PaymentEvent{
		Type: EventCheckoutCompleted, SessionID: f.sessionID(t, b.ID),
	}))
	f.requireCounts(t, w, 0, 1)
}

func TestUpdateInventory(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	n, err := f.inventory.UpdateInventory(ctx, owner, f.room.ID, UpdateInventoryRequest{
		Start: f.clock.day(10), End: f.clock.day(12), SurgeFactor: 1.5,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	for _, row := range f.rows(t, f.window(t, 10, 12)) {
		assert.InDelta(t, 1.5, row.SurgeFactor, 0.0001)
		assert.False(t, row.Closed)
	}
	assert.InDelta(t, 1.0, f.rows(t, f.window(t, 13, 13))[0].SurgeFactor, 0.0001)

	_, err = f.inventory.UpdateInventory(ctx, stranger, f.room.ID, UpdateInventoryRequest{
		Start: f.clock.day(10), End: f.clock.day(12), SurgeFactor: 2,
	})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.inventory.UpdateInventory(ctx, owner, f.room.ID, UpdateInventoryRequest{
		Start: f.clock.day(10), End: f.clock.day(12), SurgeFactor: 0,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.inventory.UpdateInventory(ctx, owner, 999, UpdateInventoryRequest{
		Start: f.clock.day(10), End: f.clock.day(12), SurgeFactor: 1,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetRoomInventory(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	rows, err := f.inventory.GetRoomInventory(ctx, owner, f.room.ID)
	require.NoError(t, err)
	require.Len(t, rows, 366)
	assert.True(t, rows[0].Day().Equal(f.clock.day(0)))
	assert.True(t, rows[365].Day().Equal(f.clock.day(0).AddDate(1, 0, 0)))
	for _, row := range rows {
		assert.Equal(t, 5, row.TotalCount)
		assert.Equal(t, "Lisbon", row.City)
	}

	_, err = f.inventory.GetRoomInventory(ctx, customer, f.room.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestInitializeRoomTwiceIsInvalid(t *testing.T) {
	f := newFixture(t, 5)
	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.inventory.InitializeRoom(tx, f.hotel, f.room, f.window(t, 3, 4))
	})
	require.ErrorIs(t, err, ErrInvalidState)

	var count int64
	require.NoError(t, f.db.Model(&models.Inventory{}).Where("room_id = ?", f.room.ID).Count(&count).Error)
	assert.EqualValues(t, 366, count)
}
