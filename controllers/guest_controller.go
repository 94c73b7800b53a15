package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type GuestController struct {
	GuestSvc *services.GuestService
}

func NewGuestController(svc *services.GuestService) *GuestController {
	return &GuestController{GuestSvc: svc}
}

type GuestPayload struct {
	Name   string `json:"name" binding:"required"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

// POST /api/users/me/guests
func (ctrl *GuestController) CreateGuest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var payload GuestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	guest := models.Guest{Name: payload.Name, Gender: payload.Gender, Age: payload.Age}
	if err := ctrl.GuestSvc.CreateGuest(c.Request.Context(), p, &guest); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, guest)
}

// GET /api/users/me/guests
func (ctrl *GuestController) ListGuests(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	guests, err := ctrl.GuestSvc.ListGuests(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guests)
}
