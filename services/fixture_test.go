package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-inventory/models"
)

var (
	owner    = Principal{UserID: 1}
	customer = Principal{UserID: 2}
	stranger = Principal{UserID: 3}
)

// newTestDB opens a private in-memory database. One connection means
// transactions run one after another, standing in for row locks.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2030, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// day returns the calendar date n days after the clock's start date.
func (c *testClock) day(n int) time.Time {
	return DateOnly(c.Now()).AddDate(0, 0, n)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type failingRefunds struct {
	*SandboxGateway
}

func (failingRefunds) Refund(context.Context, string) error {
	return errors.New("refund declined")
}

type fixture struct {
	db        *gorm.DB
	clock     *testClock
	inventory *InventoryService
	hotels    *HotelService
	rooms     *RoomService
	bookings  *BookingService
	expiry    *ExpiryService
	gateway   *SandboxGateway
	events    *recordingPublisher
	hotel     models.Hotel
	room      models.Room
}

// newFixture builds an active hotel in Lisbon with one room type of
// totalCount rooms at 100 a night, and a year of ledger rows.
func newFixture(t *testing.T, totalCount int) *fixture {
	t.Helper()
	f := &fixture{
		db:      newTestDB(t),
		clock:   newTestClock(),
		gateway: NewSandboxGateway("https://pay.test"),
		events:  &recordingPublisher{},
	}
	f.inventory = NewInventoryService(f.db)
	f.inventory.Now = f.clock.Now
	f.rooms = NewRoomService(f.db, f.inventory)
	f.hotels = NewHotelService(f.db, f.inventory, f.rooms)
	f.bookings = NewBookingService(f.db, f.inventory, f.gateway, f.events, BookingOptions{
		Pricing:     PricingConfig{UrgencyWindowDays: 7},
		FrontendURL: "https://app.test/",
		Now:         f.clock.Now,
	})
	f.expiry = NewExpiryService(f.bookings)

	ctx := context.Background()
	f.hotel = models.Hotel{Name: "Harbour View", City: "Lisbon"}
	require.NoError(t, f.hotels.CreateHotel(ctx, owner, &f.hotel))
	f.room = models.Room{Type: "Standard", BasePrice: 100, TotalCount: totalCount}
	require.NoError(t, f.rooms.CreateRoom(ctx, owner, f.hotel.ID, &f.room))
	_, err := f.hotels.ActivateHotel(ctx, owner, f.hotel.ID)
	require.NoError(t, err)
	return f
}

func (f *fixture) window(t *testing.T, from, to int) Window {
	t.Helper()
	w, err := NewWindow(f.clock.day(from), f.clock.day(to))
	require.NoError(t, err)
	return w
}

// rows returns the ledger rows of the fixture room over the window.
func (f *fixture) rows(t *testing.T, w Window) []models.Inventory {
	t.Helper()
	var rows []models.Inventory
	require.NoError(t, inWindow(f.db, f.room.ID, w).Order("date ASC").Find(&rows).Error)
	require.Len(t, rows, w.Days())
	return rows
}

func (f *fixture) requireCounts(t *testing.T, w Window, reserved, booked int) {
	t.Helper()
	for _, row := range f.rows(t, w) {
		require.Equal(t, reserved, row.ReservedCount, "reserved on %s", row.Day().Format(dateLayout))
		require.Equal(t, booked, row.BookedCount, "booked on %s", row.Day().Format(dateLayout))
		require.GreaterOrEqual(t, row.Free(), 0)
	}
}

func (f *fixture) book(t *testing.T, p Principal, from, to, rooms int) *models.Booking {
	t.Helper()
	b, err := f.bookings.InitiateBooking(context.Background(), p, BookingRequest{
		HotelID:    f.hotel.ID,
		RoomID:     f.room.ID,
		CheckIn:    f.clock.day(from),
		CheckOut:   f.clock.day(to),
		RoomsCount: rooms,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) status(t *testing.T, id uint) models.BookingStatus {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.First(&b, id).Error)
	return b.Status
}

func (f *fixture) sessionID(t *testing.T, id uint) string {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.First(&b, id).Error)
	require.NotNil(t, b.PaymentSessionID)
	return *b.PaymentSessionID
}

// confirmed drives a fresh booking through payment capture.
func (f *fixture) confirmed(t *testing.T, p Principal, from, to, rooms int) *models.Booking {
	t.Helper()
	ctx := context.Background()
	b := f.book(t, p, from, to, rooms)
	_, err := f.bookings.InitiatePayments(ctx, p, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.bookings.CapturePayment(ctx, PaymentEvent{
		Type:      EventCheckoutCompleted,
		SessionID: f.sessionID(t, b.ID),
	}))
	return b
}
