package admin

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guestgate/guestgate/internal/config"
	"github.com/guestgate/guestgate/internal/guest"
	"github.com/guestgate/guestgate/internal/http/api/admin/handlers"
	"github.com/guestgate/guestgate/internal/http/middleware"
	"github.com/guestgate/guestgate/internal/qrcode"
)

// RegisterAdminRoutes registers authentication and guest-management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, svc *guest.Service, gen *qrcode.Generator) {
	if r == nil || db == nil {
		return
	}

	api := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	api.POST("/login", authHandler.Login)
	api.POST("/login/totp", authHandler.LoginTOTP)

	api.GET("/health", handlers.Health)

	authed := api.Group("")
	authed.Use(middleware.AdminAuth(jwtCfg))

	mfaHandler := handlers.NewMFAHandler(db)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	guestHandler := handlers.NewGuestHandler(svc, gen)
	authed.GET("/guests", guestHandler.List)
	authed.POST("/guests", guestHandler.Create)
	authed.GET("/guests/:id", guestHandler.Get)
	authed.PUT("/guests/:id", guestHandler.Update)
	authed.DELETE("/guests/:id", guestHandler.Delete)
	authed.POST("/guests/import", guestHandler.ImportCSV)
	authed.GET("/guests/export", guestHandler.ExportCSV)
	authed.POST("/guests/reset-entries", guestHandler.ResetEntries)
	authed.POST("/qr-codes/regenerate", guestHandler.RegenerateQRCodes)
	authed.GET("/qr-codes/bundle", guestHandler.QRBundle)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings/:key", settingsHandler.Put)
}
