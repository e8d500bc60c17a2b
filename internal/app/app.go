// Package app wires the guestgate service together: configuration, database,
// HTTP surfaces and maintenance operations. The database handle is opened
// here and passed down explicitly; no package keeps ambient global state.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guestgate/guestgate/internal/config"
	"github.com/guestgate/guestgate/internal/db"
	"github.com/guestgate/guestgate/internal/guest"
	adminapi "github.com/guestgate/guestgate/internal/http/api/admin"
	gateapi "github.com/guestgate/guestgate/internal/http/api/gate"
	"github.com/guestgate/guestgate/internal/logging"
	"github.com/guestgate/guestgate/internal/models"
	"github.com/guestgate/guestgate/internal/qrcode"
	"github.com/guestgate/guestgate/internal/security"
)

// open loads config, connects the database and runs migrations.
func open(configPath string) (config.Config, *gorm.DB, error) {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return config.Config{}, nil, errLoad
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return config.Config{}, nil, errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return config.Config{}, nil, errMigrate
	}
	return cfg, conn, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	_, _, err := open(configPath)
	return err
}

// RunServer boots the HTTP server with all routes registered.
func RunServer(ctx context.Context, configPath string) error {
	cfg, conn, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}

	svc := guest.NewService(conn)
	gen := qrcode.NewGenerator(cfg.QRDir)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	adminapi.RegisterAdminRoutes(engine, conn, cfg.JWT, svc, gen)
	gateapi.RegisterGateRoutes(engine, cfg.JWT, svc)
	engine.Static("/qr", cfg.QRDir)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("guestgate listening on %s", cfg.Listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// CreateAdmin creates or updates an admin account with the given credentials.
func CreateAdmin(ctx context.Context, configPath, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return errors.New("app: username and password are required")
	}

	_, conn, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}

	var existing models.Admin
	errFind := conn.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	switch {
	case errFind == nil:
		if errUpdate := conn.WithContext(ctx).Model(&existing).
			Updates(map[string]any{"password": hash, "active": true}).Error; errUpdate != nil {
			return errUpdate
		}
		log.Infof("updated password for admin %q", username)
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		admin := models.Admin{Username: username, Password: hash, Active: true}
		if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
			return errCreate
		}
		log.Infof("created admin %q", username)
	default:
		return errFind
	}
	return nil
}

// ImportGuests imports guests from a CSV file and renders their QR artifacts.
func ImportGuests(ctx context.Context, configPath, csvPath string) error {
	cfg, conn, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}

	file, errFile := os.Open(csvPath)
	if errFile != nil {
		return fmt.Errorf("app: open %s: %w", csvPath, errFile)
	}
	defer func() { _ = file.Close() }()

	svc := guest.NewService(conn)
	result, errImport := svc.ImportCSV(ctx, file)
	if errImport != nil {
		return fmt.Errorf("app: import aborted after %d rows: %w", result.Imported, errImport)
	}
	log.Infof("imported %d guests, skipped %d", result.Imported, result.Skipped)

	return regenerateArtifacts(ctx, svc, qrcode.NewGenerator(cfg.QRDir))
}

// ExportGuests writes the guest table as CSV to the given path or stdout.
func ExportGuests(ctx context.Context, configPath, csvPath string) error {
	_, conn, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}

	var out io.Writer = os.Stdout
	if csvPath != "" && csvPath != "-" {
		file, errFile := os.Create(csvPath)
		if errFile != nil {
			return fmt.Errorf("app: create %s: %w", csvPath, errFile)
		}
		defer func() { _ = file.Close() }()
		out = file
	}

	return guest.NewService(conn).ExportCSV(ctx, out)
}

// ResetEntries clears entry state for every guest.
func ResetEntries(ctx context.Context, configPath string) error {
	_, conn, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}
	count, errReset := guest.NewService(conn).ResetAllEntries(ctx)
	if errReset != nil {
		return errReset
	}
	fmt.Printf("reset %d guests to not entered\n", count)
	return nil
}

// GenerateQRCodes renders QR artifacts for every guest.
func GenerateQRCodes(ctx context.Context, configPath string) error {
	cfg, conn, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}
	return regenerateArtifacts(ctx, guest.NewService(conn), qrcode.NewGenerator(cfg.QRDir))
}

// BundleQRCodes zips all rendered QR artifacts into one archive file.
func BundleQRCodes(ctx context.Context, configPath, zipPath string) error {
	cfg, _, errOpen := open(configPath)
	if errOpen != nil {
		return errOpen
	}
	if zipPath == "" {
		zipPath = "qr_codes.zip"
	}

	file, errFile := os.Create(zipPath)
	if errFile != nil {
		return fmt.Errorf("app: create %s: %w", zipPath, errFile)
	}
	defer func() { _ = file.Close() }()

	if errBundle := qrcode.NewGenerator(cfg.QRDir).WriteBundle(file); errBundle != nil {
		return errBundle
	}
	log.Infof("wrote %s", zipPath)
	return nil
}

// regenerateArtifacts renders and records QR images for all guests.
func regenerateArtifacts(ctx context.Context, svc *guest.Service, gen *qrcode.Generator) error {
	rows, errList := svc.List(ctx, guest.ListFilter{})
	if errList != nil {
		return errList
	}
	for _, row := range rows {
		name, errGenerate := gen.Generate(row.GuestCode, row.Name)
		if errGenerate != nil {
			log.Warnf("render qr for %s: %v", row.GuestCode, errGenerate)
			continue
		}
		if errSet := svc.SetQRCodeURL(ctx, row.ID, "/qr/"+name); errSet != nil {
			log.Warnf("record qr url for %s: %v", row.GuestCode, errSet)
		}
	}
	log.Infof("rendered QR codes for %d guests into %s", len(rows), gen.Dir())
	return nil
}
