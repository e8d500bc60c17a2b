// Package gate exposes the scan-station API used at the event entrance.
package gate

import (
	"github.com/gin-gonic/gin"

	"github.com/guestgate/guestgate/internal/config"
	"github.com/guestgate/guestgate/internal/guest"
	"github.com/guestgate/guestgate/internal/http/api/gate/handlers"
	"github.com/guestgate/guestgate/internal/http/middleware"
)

// RegisterGateRoutes registers the check-in routes. Gate stations sign in
// with admin accounts, so scans carry the same bearer tokens.
func RegisterGateRoutes(r *gin.Engine, jwtCfg config.JWTConfig, svc *guest.Service) {
	if r == nil || svc == nil {
		return
	}

	api := r.Group("/v0/gate")
	api.Use(middleware.AdminAuth(jwtCfg))

	checkInHandler := handlers.NewCheckInHandler(svc)
	api.POST("/check-in", checkInHandler.CheckIn)
	api.GET("/guests/:code", checkInHandler.Lookup)
}
