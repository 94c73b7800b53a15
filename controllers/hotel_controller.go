// controllers/hotel_controller.go
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type HotelController struct {
	HotelSvc   *services.HotelService
	SearchSvc  *services.SearchService
	BookingSvc *services.BookingService
}

func NewHotelController(hotels *services.HotelService, search *services.SearchService, bookings *services.BookingService) *HotelController {
	return &HotelController{HotelSvc: hotels, SearchSvc: search, BookingSvc: bookings}
}

type HotelPayload struct {
	Name        string                  `json:"name" binding:"required"`
	City        string                  `json:"city" binding:"required"`
	Photos      []string                `json:"photos"`
	Amenities   []string                `json:"amenities"`
	ContactInfo models.HotelContactInfo `json:"contactInfo"`
}

func jsonList(values []string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

// GET /api/hotels/search
func (ctrl *HotelController) SearchHotels(c *gin.Context) {
	start, ok := dateQuery(c, "startDate")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "endDate")
	if !ok {
		return
	}
	rooms, ok := intQuery(c, "roomsCount", 1)
	if !ok {
		return
	}
	page, ok := intQuery(c, "page", 0)
	if !ok {
		return
	}
	size, ok := intQuery(c, "size", 10)
	if !ok {
		return
	}

	result, err := ctrl.SearchSvc.SearchHotels(c.Request.Context(), services.HotelSearchRequest{
		City:       c.Query("city"),
		StartDate:  start,
		EndDate:    end,
		RoomsCount: rooms,
		Page:       page,
		Size:       size,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// GET /api/hotels/:id/info
func (ctrl *HotelController) GetHotelInfo(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	start, ok := dateQuery(c, "startDate")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "endDate")
	if !ok {
		return
	}
	rooms, ok := intQuery(c, "roomsCount", 1)
	if !ok {
		return
	}
	w, err := services.NewWindow(start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := ctrl.SearchSvc.HotelInfo(c.Request.Context(), id, w, rooms)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, info)
}

// POST /api/admin/hotels
func (ctrl *HotelController) CreateHotel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var payload HotelPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	hotel := models.Hotel{
		Name:        payload.Name,
		City:        payload.City,
		Photos:      jsonList(payload.Photos),
		Amenities:   jsonList(payload.Amenities),
		ContactInfo: payload.ContactInfo,
	}
	if err := ctrl.HotelSvc.CreateHotel(c.Request.Context(), p, &hotel); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, hotel)
}

// POST /api/admin/hotels/:id/activate
func (ctrl *HotelController) ActivateHotel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	hotel, err := ctrl.HotelSvc.ActivateHotel(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, hotel)
}

// DELETE /api/admin/hotels/:id
func (ctrl *HotelController) DeleteHotel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.HotelSvc.DeleteHotel(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/hotels/:id/bookings
func (ctrl *HotelController) GetHotelBookings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	list, err := ctrl.BookingSvc.GetHotelBookings(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// GET /api/admin/hotels/:id/reports
func (ctrl *HotelController) GetHotelReport(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	start, ok := dateQuery(c, "startDate")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "endDate")
	if !ok {
		return
	}
	report, err := ctrl.BookingSvc.HotelReport(c.Request.Context(), p, id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, report)
}
