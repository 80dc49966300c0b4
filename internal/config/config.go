package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Lifecycle LifecycleConfig
	Booking   BookingConfig
	AMQP      AMQPConfig
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Database   string
	SQLitePath string
}

type JWTConfig struct {
	AccessSecret       string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig toggles authentication. When disabled every request runs
// as the anonymous principal with staff rights. StaffUsername and
// StaffPassword, when both set, provision a staff account at startup.
type SecurityConfig struct {
	Enabled       bool
	StaffUsername string
	StaffPassword string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// LifecycleConfig drives the booking lifecycle scheduler
type LifecycleConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
}

type BookingConfig struct {
	Buffer      time.Duration
	Location    *time.Location
	OpeningHour int
	ClosingHour int
}

// AMQPConfig enables event publishing to RabbitMQ when URL is set
type AMQPConfig struct {
	URL      string
	Exchange string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("BOOKING_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "3306"),
			User:       getEnv("DB_USER", "root"),
			Password:   getEnv("DB_PASSWORD", ""),
			Database:   getEnv("DB_NAME", "room_booking"),
			SQLitePath: getEnv("SQLITE_PATH", "room_booking.db"),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			AccessTokenExpiry:  parseDuration("ACCESS_TOKEN_EXPIRY", "15m"),
			RefreshTokenExpiry: parseDuration("REFRESH_TOKEN_EXPIRY", "168h"),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Security: SecurityConfig{
			Enabled:       parseBool("SECURITY_ENABLED", false),
			StaffUsername: getEnv("STAFF_USERNAME", ""),
			StaffPassword: getEnv("STAFF_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			PerSecond: parseFloat("RATE_LIMIT_PER_SEC", 10),
			Burst:     parseInt("RATE_LIMIT_BURST", 20),
		},
		Lifecycle: LifecycleConfig{
			Interval:    parseDuration("LIFECYCLE_INTERVAL", "60s"),
			GracePeriod: parseDuration("CHECK_IN_GRACE_PERIOD", "15m"),
		},
		Booking: BookingConfig{
			Buffer:      parseDuration("BOOKING_BUFFER", "0s"),
			Location:    loc,
			OpeningHour: parseInt("OPENING_HOUR", 8),
			ClosingHour: parseInt("CLOSING_HOUR", 18),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "room-booking.events"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Database.Driver != "mysql" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.Database.Driver)
	}
	b := c.Booking
	if b.OpeningHour < 0 || b.ClosingHour > 24 || b.OpeningHour >= b.ClosingHour {
		return fmt.Errorf("OPENING_HOUR (%d) must be before CLOSING_HOUR (%d) within 0-24", b.OpeningHour, b.ClosingHour)
	}
	if b.Buffer < 0 {
		return fmt.Errorf("BOOKING_BUFFER must not be negative")
	}
	if c.Lifecycle.Interval <= 0 {
		return fmt.Errorf("LIFECYCLE_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key, defaultValue string) time.Duration {
	s := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Warning: Invalid duration '%s' for %s, using %s", s, key, defaultValue)
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func parseBool(key string, defaultValue bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Warning: Invalid boolean '%s' for %s, using %t", s, key, defaultValue)
		return defaultValue
	}
	return v
}

func parseInt(key string, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Warning: Invalid integer '%s' for %s, using %d", s, key, defaultValue)
		return defaultValue
	}
	return v
}

func parseFloat(key string, defaultValue float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Warning: Invalid number '%s' for %s, using %g", s, key, defaultValue)
		return defaultValue
	}
	return v
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
