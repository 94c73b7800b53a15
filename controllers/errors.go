// controllers/errors.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"hotel-inventory/middleware"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrNotFound, http.StatusNotFound, "error.notFound"},
	{services.ErrForbidden, http.StatusForbidden, "error.forbidden"},
	{services.ErrCapacityConflict, http.StatusConflict, "error.capacityConflict"},
	{services.ErrInvalidState, http.StatusConflict, "error.invalidState"},
	{services.ErrBookingExpired, http.StatusGone, "error.bookingExpired"},
	{services.ErrValidation, http.StatusBadRequest, "error.invalidPayload"},
	{services.ErrPayment, http.StatusBadGateway, "error.paymentFailed"},
}

// respondError maps service sentinels to HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			utils.JSONError(c, m.status, m.code, err.Error())
			return
		}
	}
	_ = c.Error(err)
	log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Msg("unhandled service error")
	utils.JSONError(c, http.StatusInternalServerError, "error.internal", "internal server error")
}

func badRequest(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", message)
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// principal is set by middleware.Principal on every protected route.
func principal(c *gin.Context) (services.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	}
	return p, ok
}

func dateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		badRequest(c, name+" is required")
		return time.Time{}, false
	}
	t, err := services.ParseDate(raw)
	if err != nil {
		respondError(c, err)
		return time.Time{}, false
	}
	return t, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}
