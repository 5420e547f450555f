package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Source modes
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceHTTP   = "http"
	SourceMock   = "mock"
)

// Cache modes
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	Timezone string
	Location *time.Location

	SourceMode             string
	SheetsAPIKey           string
	SheetsSpreadsheetID    string
	SheetsRange            string
	PerformanceSheetsRange string
	XLSXPath               string
	XLSXSheet              string
	SourceURL              string
	FetchTimeout           time.Duration

	CacheMode     string
	CacheTTL      time.Duration
	RedisAddress  string
	RedisPassword string

	RefreshInterval         time.Duration
	ViewIdleTimeout         time.Duration
	UnderperformerThreshold float64
	RecentLimit             int
	PageSize                int
	Currency                string

	AdminEmails []string
	UserEmails  []string

	SkipAuth           bool
	Env                string
	VerifyJWTSignature bool
	OIDCIssuer         string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigins:         splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		Timezone:               getEnv("TIMEZONE", "Local"),
		SourceMode:             strings.ToLower(getEnv("SOURCE_MODE", SourceMock)),
		SheetsAPIKey:           os.Getenv("SHEETS_API_KEY"),
		SheetsSpreadsheetID:    os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetsRange:            getEnv("SHEETS_RANGE", "data"),
		XLSXPath:               os.Getenv("XLSX_PATH"),
		XLSXSheet:              os.Getenv("XLSX_SHEET"),
		SourceURL:              os.Getenv("SOURCE_URL"),
		CacheMode:              strings.ToLower(getEnv("CACHE_MODE", CacheMemory)),
		RedisAddress:           getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		Currency:               getEnv("CURRENCY", "USD"),
		AdminEmails:            splitList(os.Getenv("ADMIN_EMAILS")),
		UserEmails:             splitList(os.Getenv("USER_EMAILS")),
		SkipAuth:               os.Getenv("SKIP_AUTH") == "true",
		Env:                    os.Getenv("ENV"),
		VerifyJWTSignature:     os.Getenv("VERIFY_JWT_SIGNATURE") == "true",
		OIDCIssuer:             os.Getenv("OIDC_ISSUER"),
		PerformanceSheetsRange: os.Getenv("PERFORMANCE_SHEETS_RANGE"),
	}
	if config.PerformanceSheetsRange == "" {
		config.PerformanceSheetsRange = config.SheetsRange
	}

	switch config.SourceMode {
	case SourceSheets, SourceXLSX, SourceHTTP, SourceMock:
	default:
		return nil, fmt.Errorf("invalid SOURCE_MODE: %q", config.SourceMode)
	}
	switch config.CacheMode {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return nil, fmt.Errorf("invalid CACHE_MODE: %q", config.CacheMode)
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	config.Location = loc

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"FETCH_TIMEOUT", "10s", &config.FetchTimeout},
		{"CACHE_TTL", "5m", &config.CacheTTL},
		{"REFRESH_INTERVAL", "5m", &config.RefreshInterval},
		{"VIEW_IDLE_TIMEOUT", "30m", &config.ViewIdleTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dest = v
	}

	config.UnderperformerThreshold, err = strconv.ParseFloat(getEnv("UNDERPERFORMER_THRESHOLD", "80"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UNDERPERFORMER_THRESHOLD: %w", err)
	}
	config.RecentLimit, err = strconv.Atoi(getEnv("RECENT_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECENT_LIMIT: %w", err)
	}
	config.PageSize, err = strconv.Atoi(getEnv("PAGE_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGE_SIZE: %w", err)
	}

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
