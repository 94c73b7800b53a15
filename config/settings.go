package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hotel-inventory/services"
)

type Settings struct {
	Port                 string        `mapstructure:"PORT"`
	FrontendURL          string        `mapstructure:"FRONTEND_URL"`
	CorsOrigins          string        `mapstructure:"CORS_ORIGINS"`
	DBType               string        `mapstructure:"DB_TYPE"`
	DBPath               string        `mapstructure:"DB_PATH"`
	BookingExpiry        time.Duration `mapstructure:"BOOKING_EXPIRY"`
	ReaperInterval       time.Duration `mapstructure:"REAPER_INTERVAL"`
	PriceRefreshInterval time.Duration `mapstructure:"PRICE_REFRESH_INTERVAL"`
	UrgencyWindowDays    int           `mapstructure:"URGENCY_WINDOW_DAYS"`
	Holidays             string        `mapstructure:"HOLIDAYS"`
	SearchCacheTTL       time.Duration `mapstructure:"SEARCH_CACHE_TTL"`
	SearchCacheSize      int           `mapstructure:"SEARCH_CACHE_SIZE"`
	RabbitMQURL          string        `mapstructure:"RABBITMQ_URL"`
	BookingEventsQueue   string        `mapstructure:"BOOKING_EVENTS_QUEUE"`
	SeedDemo             bool          `mapstructure:"SEED_DEMO"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]interface{}{
	"PORT":                   "8080",
	"FRONTEND_URL":           "http://localhost:3000",
	"CORS_ORIGINS":           "",
	"DB_TYPE":                "mysql",
	"DB_PATH":                "data/hotel.db",
	"BOOKING_EXPIRY":         services.DefaultBookingExpiry,
	"REAPER_INTERVAL":        time.Minute,
	"PRICE_REFRESH_INTERVAL": time.Hour,
	"URGENCY_WINDOW_DAYS":    7,
	"HOLIDAYS":               "",
	"SEARCH_CACHE_TTL":       30 * time.Second,
	"SEARCH_CACHE_SIZE":      256,
	"RABBITMQ_URL":           "",
	"BOOKING_EVENTS_QUEUE":   "booking_events",
	"SEED_DEMO":              false,
	"LOG_LEVEL":              "info",
}

// LoadSettings reads config.env from the working directory if present, then
// lets environment variables override it.
func LoadSettings() (Settings, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	s.DBType = strings.ToLower(strings.TrimSpace(s.DBType))
	switch s.DBType {
	case "mysql", "postgres", "sqlite":
	default:
		return Settings{}, fmt.Errorf("invalid DB_TYPE %q, options: mysql, postgres, sqlite", s.DBType)
	}
	return s, nil
}

// HolidayCalendar parses HOLIDAYS, a comma separated list of YYYY-MM-DD dates.
func (s Settings) HolidayCalendar() (services.HolidayCalendar, error) {
	var days []time.Time
	for _, part := range strings.Split(s.Holidays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := services.ParseDate(part)
		if err != nil {
			return nil, fmt.Errorf("HOLIDAYS: %w", err)
		}
		days = append(days, d)
	}
	return services.NewHolidayCalendar(days...), nil
}

func (s Settings) Pricing() (services.PricingConfig, error) {
	cal, err := s.HolidayCalendar()
	if err != nil {
		return services.PricingConfig{}, err
	}
	return services.PricingConfig{UrgencyWindowDays: s.UrgencyWindowDays, Holidays: cal}, nil
}

// ParseCorsOrigins splits CORS_ORIGINS; empty means any origin.
func (s Settings) ParseCorsOrigins() []string {
	raw := strings.TrimSpace(s.CorsOrigins)
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
