package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-inventory/models"
)

func searchReq(f *fixture, from, to, rooms int) HotelSearchRequest {
	return HotelSearchRequest{
		City:       "Lisbon",
		StartDate:  f.clock.day(from),
		EndDate:    f.clock.day(to),
		RoomsCount: rooms,
	}
}

func TestSearchRequiresCapacityOnEveryDay(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	search := NewSearchService(f.db, 0, 0)

	page, err := search.SearchHotels(ctx, searchReq(f, 1, 5, 2))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, f.hotel.ID, page.Content[0].Hotel.ID)
	assert.InDelta(t, 100.0, page.Content[0].Price, 0.001)
	assert.EqualValues(t, 1, page.TotalElements)

	// one sold-out day disqualifies the room type for the whole window
	f.book(t, customer, 3, 3, 1)
	page, err = search.SearchHotels(ctx, searchReq(f, 1, 5, 2))
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Zero(t, page.TotalElements)

	page, err = search.SearchHotels(ctx, searchReq(f, 1, 5, 1))
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)

	page, err = search.SearchHotels(ctx, HotelSearchRequest{City: "Porto", StartDate: f.clock.day(1), EndDate: f.clock.day(2)})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestSearchSkipsInactiveHotelsAndPaginates(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	search := NewSearchService(f.db, 0, 0)

	for i, price := range []float64{80, 60} {
		h := models.Hotel{Name: "Hotel", City: "Lisbon"}
		require.NoError(t, f.hotels.CreateHotel(ctx, owner, &h))
		r := models.Room{Type: "Standard", BasePrice: price, TotalCount: 3}
		require.NoError(t, f.rooms.CreateRoom(ctx, owner, h.ID, &r))
		if i == 0 {
			_, err := f.hotels.ActivateHotel(ctx, owner, h.ID)
			require.NoError(t, err)
		}
	}

	req := searchReq(f, 20, 22, 1)
	req.Size = 1
	first, err := search.SearchHotels(ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.TotalElements)
	require.Len(t, first.Content, 1)
	assert.InDelta(t, 80.0, first.Content[0].Price, 0.001)

	req.Page = 1
	second, err := search.SearchHotels(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.Content, 1)
	assert.Equal(t, f.hotel.ID, second.Content[0].Hotel.ID)

	req.Page = 2
	third, err := search.SearchHotels(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, third.Content)
}

func TestSearchValidationAndCache(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	search := NewSearchService(f.db, 16, time.Minute)

	_, err := search.SearchHotels(ctx, HotelSearchRequest{StartDate: f.clock.day(1), EndDate: f.clock.day(2)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = search.SearchHotels(ctx, searchReq(f, 3, 1, 1))
	require.ErrorIs(t, err, ErrValidation)

	before, err := search.SearchHotels(ctx, searchReq(f, 1, 2, 1))
	require.NoError(t, err)
	require.Len(t, before.Content, 1)
	assert.Equal(t, defaultPageSize, before.Size)

	f.book(t, customer, 1, 2, 1)
	cached, err := search.SearchHotels(ctx, searchReq(f, 1, 2, 1))
	require.NoError(t, err)
	assert.Len(t, cached.Content, 1, "served from cache within the ttl")

	fresh, err := NewSearchService(f.db, 0, 0).SearchHotels(ctx, searchReq(f, 1, 2, 1))
	require.NoError(t, err)
	assert.Empty(t, fresh.Content)
}

func TestHotelInfoListsAvailableRooms(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	search := NewSearchService(f.db, 0, 0)
	suite := models.Room{Type: "Suite", BasePrice: 250, TotalCount: 2}
	require.NoError(t, f.rooms.CreateRoom(ctx, owner, f.hotel.ID, &suite))

	info, err := search.HotelInfo(ctx, f.hotel.ID, f.window(t, 1, 2), 1)
	require.NoError(t, err)
	require.Len(t, info.Rooms, 2)
	assert.Equal(t, "Standard", info.Rooms[0].Room.Type)
	assert.InDelta(t, 250.0, info.Rooms[1].Price, 0.001)

	f.book(t, customer, 2, 2, 1)
	info, err = search.HotelInfo(ctx, f.hotel.ID, f.window(t, 1, 2), 1)
	require.NoError(t, err)
	require.Len(t, info.Rooms, 1)
	assert.Equal(t, suite.ID, info.Rooms[0].Room.ID)

	_, err = search.HotelInfo(ctx, 999, f.window(t, 1, 2), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshPricesUpdatesSnapshot(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	job := NewPriceRefreshService(f.db, PricingConfig{UrgencyWindowDays: 2})
	job.Now = f.clock.Now

	_, err := f.inventory.UpdateInventory(ctx, owner, f.room.ID, UpdateInventoryRequest{
		Start: f.clock.day(30), End: f.clock.day(30), SurgeFactor: 2,
	})
	require.NoError(t, err)

	updated, err := job.RefreshPrices(ctx)
	require.NoError(t, err)
	// today, tomorrow and the surged day
	assert.Equal(t, 3, updated)

	assert.InDelta(t, 115.0, f.rows(t, f.window(t, 1, 1))[0].Price, 0.001)
	assert.InDelta(t, 100.0, f.rows(t, f.window(t, 2, 2))[0].Price, 0.001)
	assert.InDelta(t, 200.0, f.rows(t, f.window(t, 30, 30))[0].Price, 0.001)

	again, err := job.RefreshPrices(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}
