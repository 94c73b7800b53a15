// controllers/room_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

type RoomPayload struct {
	Type       string   `json:"type" binding:"required"`
	BasePrice  float64  `json:"basePrice" binding:"required,gt=0"`
	TotalCount int      `json:"totalCount" binding:"required,min=1"`
	Capacity   int      `json:"capacity"`
	Photos     []string `json:"photos"`
	Amenities  []string `json:"amenities"`
}

// POST /api/admin/hotels/:id/rooms
func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	hotelID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var payload RoomPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	room := models.Room{
		Type:       payload.Type,
		BasePrice:  payload.BasePrice,
		TotalCount: payload.TotalCount,
		Capacity:   payload.Capacity,
		Photos:     jsonList(payload.Photos),
		Amenities:  jsonList(payload.Amenities),
	}
	if err := ctrl.RoomSvc.CreateRoom(c.Request.Context(), p, hotelID, &room); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// DELETE /api/admin/rooms/:id
func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.RoomSvc.DeleteRoom(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
