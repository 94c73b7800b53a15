// services/search_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// SearchService answers availability queries from the ledger without taking
// locks. Results may be stale by the time a booking is attempted; the
// booking path re-checks capacity under lock.
type SearchService struct {
	DB    *gorm.DB
	cache *expirable.LRU[string, SearchPage]
}

// NewSearchService caches result pages for ttl; size <= 0 disables caching.
func NewSearchService(db *gorm.DB, size int, ttl time.Duration) *SearchService {
	s := &SearchService{DB: db}
	if size > 0 && ttl > 0 {
		s.cache = expirable.NewLRU[string, SearchPage](size, nil, ttl)
	}
	return s
}

type HotelSearchRequest struct {
	City       string
	StartDate  time.Time
	EndDate    time.Time
	RoomsCount int
	Page       int
	Size       int
}

func (r *HotelSearchRequest) normalize() (Window, error) {
	r.City = strings.TrimSpace(r.City)
	if r.City == "" {
		return Window{}, fmt.Errorf("%w: city is required", ErrValidation)
	}
	if r.RoomsCount <= 0 {
		r.RoomsCount = 1
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = defaultPageSize
	}
	if r.Size > maxPageSize {
		r.Size = maxPageSize
	}
	return NewWindow(r.StartDate, r.EndDate)
}

type HotelPrice struct {
	Hotel models.Hotel `json:"hotel"`
	Price float64      `json:"price"`
}

type SearchPage struct {
	Content       []HotelPrice `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int64        `json:"totalElements"`
}

// availableRooms selects (hotel_id, room_id, avg_price) for room types that
// have `count` free rooms on every day of w.
func availableRooms(db *gorm.DB, w Window, count int) *gorm.DB {
	return db.Model(&models.Inventory{}).
		Select("hotel_id, room_id, AVG(price) AS avg_price").
		Where("date BETWEEN ? AND ? AND closed = ?", w.Start, w.End, false).
		Where("(total_count - booked_count - reserved_count) >= ?", count).
		Group("hotel_id, room_id").
		Having("COUNT(*) = ?", w.Days())
}

func (s *SearchService) cacheKey(r HotelSearchRequest, w Window) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", strings.ToLower(r.City), w, r.RoomsCount, r.Page, r.Size)
}

// SearchHotels returns active hotels in a city with at least one room type
// that can take RoomsCount rooms on every day of the window, cheapest first.
func (s *SearchService) SearchHotels(ctx context.Context, req HotelSearchRequest) (SearchPage, error) {
	w, err := req.normalize()
	if err != nil {
		return SearchPage{}, err
	}
	key := s.cacheKey(req, w)
	if s.cache != nil {
		if page, ok := s.cache.Get(key); ok {
			return page, nil
		}
	}

	db := s.DB.WithContext(ctx)
	// gorm statements are not reusable once executed, so every query builds
	// its own chain.
	matches := func() *gorm.DB {
		sub := availableRooms(db, w, req.RoomsCount).Where("city = ?", req.City)
		return db.Table("(?) AS a", sub).
			Joins("JOIN hotels ON hotels.id = a.hotel_id").
			Where("hotels.active = ?", true)
	}

	var total int64
	if err := matches().Distinct("a.hotel_id").Count(&total).Error; err != nil {
		return SearchPage{}, fmt.Errorf("count hotels in %s: %w", req.City, err)
	}

	var hits []struct {
		HotelID uint
		Price   float64
	}
	if total > 0 {
		if err := matches().
			Select("a.hotel_id AS hotel_id, MIN(a.avg_price) AS price").
			Group("a.hotel_id").
			Order("price ASC, a.hotel_id ASC").
			Limit(req.Size).Offset(req.Page * req.Size).
			Scan(&hits).Error; err != nil {
			return SearchPage{}, fmt.Errorf("search hotels in %s: %w", req.City, err)
		}
	}

	page := SearchPage{Content: make([]HotelPrice, 0, len(hits)), Page: req.Page, Size: req.Size, TotalElements: total}
	if len(hits) > 0 {
		ids := make([]uint, len(hits))
		for i, h := range hits {
			ids[i] = h.HotelID
		}
		var hotels []models.Hotel
		if err := db.Where("id IN ?", ids).Find(&hotels).Error; err != nil {
			return SearchPage{}, fmt.Errorf("load hotels: %w", err)
		}
		byID := make(map[uint]models.Hotel, len(hotels))
		for _, h := range hotels {
			byID[h.ID] = h
		}
		for _, h := range hits {
			if hotel, ok := byID[h.HotelID]; ok {
				page.Content = append(page.Content, HotelPrice{Hotel: hotel, Price: roundMoney(h.Price)})
			}
		}
	}

	log.Debug().Str("city", req.City).Str("window", w.String()).Int64("total", total).Msg("hotel search")
	if s.cache != nil {
		s.cache.Add(key, page)
	}
	return page, nil
}

type RoomPrice struct {
	Room  models.Room `json:"room"`
	Price float64     `json:"price"`
}

type HotelInfo struct {
	Hotel models.Hotel `json:"hotel"`
	Rooms []RoomPrice  `json:"rooms"`
}

// HotelInfo returns an active hotel with the average nightly price of every
// room type that can take roomsCount rooms on every day of w.
func (s *SearchService) HotelInfo(ctx context.Context, hotelID uint, w Window, roomsCount int) (HotelInfo, error) {
	if roomsCount <= 0 {
		roomsCount = 1
	}
	db := s.DB.WithContext(ctx)

	var hotel models.Hotel
	if err := db.Where("id = ? AND active = ?", hotelID, true).First(&hotel).Error; err != nil {
		return HotelInfo{}, notFoundOr(err, "hotel", hotelID)
	}

	var hits []struct {
		RoomID   uint
		AvgPrice float64
	}
	if err := availableRooms(db, w, roomsCount).Where("hotel_id = ?", hotelID).
		Scan(&hits).Error; err != nil {
		return HotelInfo{}, fmt.Errorf("room prices for hotel %d: %w", hotelID, err)
	}

	info := HotelInfo{Hotel: hotel, Rooms: make([]RoomPrice, 0, len(hits))}
	if len(hits) == 0 {
		return info, nil
	}
	prices := make(map[uint]float64, len(hits))
	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		prices[h.RoomID] = h.AvgPrice
		ids = append(ids, h.RoomID)
	}
	var rooms []models.Room
	if err := db.Where("id IN ?", ids).Order("base_price ASC, id ASC").Find(&rooms).Error; err != nil {
		return HotelInfo{}, fmt.Errorf("load rooms of hotel %d: %w", hotelID, err)
	}
	for _, r := range rooms {
		info.Rooms = append(info.Rooms, RoomPrice{Room: r, Price: roundMoney(prices[r.ID])})
	}
	return info, nil
}
