package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-inventory/models"
	"hotel-inventory/services"
)

var DB *gorm.DB

const (
	connectAttempts = 10
	connectBackoff  = 50 * time.Millisecond
)

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		envOrDefault("DB_USER", "root"),
		envOrDefault("DB_PASS", ""),
		envOrDefault("DB_HOST", "127.0.0.1"),
		envOrDefault("DB_PORT", "3306"),
		envOrDefault("DB_NAME", "hotel_db"),
	), nil
}

func resolvePostgresDSN() string {
	if raw := strings.TrimSpace(os.Getenv("DATABASE_URL")); raw != "" {
		return raw
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		envOrDefault("DB_HOST", "127.0.0.1"),
		envOrDefault("DB_USER", "postgres"),
		envOrDefault("DB_PASS", ""),
		envOrDefault("DB_NAME", "hotel_db"),
		envOrDefault("DB_PORT", "5432"),
	)
}

func dialector(s Settings) (gorm.Dialector, error) {
	switch s.DBType {
	case "mysql":
		dsn, err := resolveMySQLDSN()
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(resolvePostgresDSN()), nil
	case "sqlite":
		if dir := filepath.Dir(s.DBPath); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return sqlite.Open(s.DBPath + "?_foreign_keys=on&_busy_timeout=5000"), nil
	}
	return nil, fmt.Errorf("invalid DB_TYPE %q, options: mysql, postgres, sqlite", s.DBType)
}

// GormConfig routes gorm's SQL log through zerolog and keeps timestamps in UTC
// so ledger dates compare the same way on every driver.
func GormConfig(level logger.LogLevel) *gorm.Config {
	gl := log.With().Str("component", "gorm").Logger()
	return &gorm.Config{
		Logger: logger.New(&gl, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

// ConnectDatabase opens the configured store with retries, migrates the
// schema and sets DB.
func ConnectDatabase(s Settings) (*gorm.DB, error) {
	d, err := dialector(s)
	if err != nil {
		return nil, err
	}
	log.Info().Str("datastore", s.DBType).Msg("connecting database")

	var db *gorm.DB
	wait := connectBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(d, GormConfig(logger.Warn))
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("database not reachable, retrying")
		time.Sleep(wait)
		wait *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.DBType, err)
	}

	if s.DBType == "sqlite" {
		// sqlite has no row locks; one writer connection serializes transactions.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	DB = db
	return db, nil
}

// SeedDatabase creates a demo owner with one active hotel when the user table
// is empty.
func SeedDatabase(ctx context.Context, db *gorm.DB, hotels *services.HotelService) error {
	var userCount int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		log.Info().Msg("users already seeded")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("owner123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	owner := models.User{Name: "Demo Owner", Email: "owner@hotel.local", Password: string(hash)}
	if err := db.WithContext(ctx).Create(&owner).Error; err != nil {
		return fmt.Errorf("create demo owner: %w", err)
	}

	p := services.Principal{UserID: owner.ID}
	hotel := models.Hotel{
		Name:      "Harbour View",
		City:      "Lisbon",
		Amenities: datatypes.JSON(`["wifi","breakfast"]`),
		ContactInfo: models.HotelContactInfo{
			Address: "1 Harbour Road",
			Email:   "frontdesk@hotel.local",
		},
	}
	if err := hotels.CreateHotel(ctx, p, &hotel); err != nil {
		return err
	}
	rooms := []models.Room{
		{Type: "Standard", BasePrice: 90, TotalCount: 10, Capacity: 2},
		{Type: "Deluxe", BasePrice: 150, TotalCount: 4, Capacity: 3},
	}
	for i := range rooms {
		if err := hotels.Rooms.CreateRoom(ctx, p, hotel.ID, &rooms[i]); err != nil {
			return err
		}
	}
	if _, err := hotels.ActivateHotel(ctx, p, hotel.ID); err != nil {
		return err
	}
	log.Info().Uint("owner", owner.ID).Uint("hotel", hotel.ID).Msg("demo data seeded")
	return nil
}
