package config

import (
	"errors"
	"os"
	"strings"

	"gorm.io/gorm/logger"
)

// Common errors
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
)

const (
	// DefaultPort is the port the zone API has always listened on.
	DefaultPort = "1890"

	// DefaultGeocodingBaseURL is the Google Maps API root used for geocoding.
	DefaultGeocodingBaseURL = "https://maps.googleapis.com/maps/api"
)

// Config holds process-wide settings. It is read once at startup and passed
// to the components that need it.
type Config struct {
	DatabaseURL string
	Port        string

	// GoogleMapsKey is empty when geocoding is disabled.
	GoogleMapsKey    string
	GeocodingBaseURL string

	// AllowedOrigins is nil when every origin is allowed.
	AllowedOrigins []string

	DBLogLevel logger.LogLevel
}

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN (required)
//   - PORT: listen port (default: 1890)
//   - GOOGLE_MAPS_API_KEY: Geocoding API key (optional, lookup is disabled without it)
//   - GEOCODING_BASE_URL: Maps API root (default: https://maps.googleapis.com/maps/api)
//   - CORS_ALLOWED_ORIGINS: comma-separated origins, empty or "*" allows all
//   - DB_LOG_LEVEL: silent, error, warn or info (default: warn)
func LoadFromEnv() Config {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = DefaultPort
	}

	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("GEOCODING_BASE_URL")), "/")
	if baseURL == "" {
		baseURL = DefaultGeocodingBaseURL
	}

	return Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Port:             port,
		GoogleMapsKey:    strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY")),
		GeocodingBaseURL: baseURL,
		AllowedOrigins:   parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		DBLogLevel:       parseLogLevel(os.Getenv("DB_LOG_LEVEL")),
	}
}

// Validate checks that the configuration can start the server.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// GeocodingEnabled reports whether a Maps API key was supplied.
func (c Config) GeocodingEnabled() bool {
	return c.GoogleMapsKey != ""
}

func parseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return nil
		}
		out = append(out, o)
	}
	return out
}

func parseLogLevel(raw string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
