// controllers/inventory_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type InventoryController struct {
	InventorySvc *services.InventoryService
}

func NewInventoryController(svc *services.InventoryService) *InventoryController {
	return &InventoryController{InventorySvc: svc}
}

type UpdateInventoryPayload struct {
	StartDate   string  `json:"startDate" binding:"required"`
	EndDate     string  `json:"endDate" binding:"required"`
	SurgeFactor float64 `json:"surgeFactor" binding:"required,gt=0"`
	Closed      bool    `json:"closed"`
}

// GET /api/admin/inventory/rooms/:roomId
func (ctrl *InventoryController) GetRoomInventory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	roomID, ok := uintParam(c, "roomId")
	if !ok {
		return
	}
	rows, err := ctrl.InventorySvc.GetRoomInventory(c.Request.Context(), p, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rows)
}

// PATCH /api/admin/inventory/rooms/:roomId
func (ctrl *InventoryController) UpdateInventory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	roomID, ok := uintParam(c, "roomId")
	if !ok {
		return
	}
	var payload UpdateInventoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := services.ParseDate(payload.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := services.ParseDate(payload.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	updated, err := ctrl.InventorySvc.UpdateInventory(c.Request.Context(), p, roomID, services.UpdateInventoryRequest{
		Start:       start,
		End:         end,
		SurgeFactor: payload.SurgeFactor,
		Closed:      payload.Closed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"updated": updated})
}
