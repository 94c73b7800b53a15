// controllers/booking_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type InitBookingPayload struct {
	HotelID      uint   `json:"hotelId" binding:"required"`
	RoomID       uint   `json:"roomId" binding:"required"`
	CheckInDate  string `json:"checkInDate" binding:"required"`
	CheckOutDate string `json:"checkOutDate" binding:"required"`
	RoomsCount   int    `json:"roomsCount" binding:"required,min=1"`
}

type AddGuestsPayload struct {
	GuestIDs []uint `json:"guestIds" binding:"required,min=1"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

// POST /api/bookings/init
func (ctrl *BookingController) InitBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var payload InitBookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := services.ParseDate(payload.CheckInDate)
	if err != nil {
		respondError(c, err)
		return
	}
	checkOut, err := services.ParseDate(payload.CheckOutDate)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := ctrl.BookingSvc.InitiateBooking(c.Request.Context(), p, services.BookingRequest{
		HotelID:    payload.HotelID,
		RoomID:     payload.RoomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		RoomsCount: payload.RoomsCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, booking)
}

// POST /api/bookings/:id/guests
func (ctrl *BookingController) AddGuests(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var payload AddGuestsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	booking, err := ctrl.BookingSvc.AddGuests(c.Request.Context(), p, id, payload.GuestIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// POST /api/bookings/:id/payments
func (ctrl *BookingController) InitiatePayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	sessionURL, err := ctrl.BookingSvc.InitiatePayments(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"sessionUrl": sessionURL})
}

// POST /api/bookings/:id/cancel
func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.BookingSvc.CancelBooking(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/bookings/:id/status
func (ctrl *BookingController) GetBookingStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	status, err := ctrl.BookingSvc.GetBookingStatus(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"bookingStatus": status})
}

// GET /api/users/me/bookings
func (ctrl *BookingController) GetMyBookings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := ctrl.BookingSvc.GetMyBookings(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// POST /webhook/payment
func (ctrl *BookingController) PaymentWebhook(c *gin.Context) {
	var ev services.PaymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := ctrl.BookingSvc.CapturePayment(c.Request.Context(), ev); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
