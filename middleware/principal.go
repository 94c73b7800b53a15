package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

const (
	UserIDHeader = "X-User-ID"
	principalKey = "principal"
)

// Principal reads the user id set by the authenticating proxy. Requests
// without a valid id are rejected with 401.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		id, err := strconv.ParseUint(raw, 10, 64)
		if raw == "" || err != nil || id == 0 {
			utils.JSONError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid "+UserIDHeader+" header")
			c.Abort()
			return
		}
		c.Set(principalKey, services.Principal{UserID: uint(id)})
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by Principal.
func CurrentPrincipal(c *gin.Context) (services.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}
