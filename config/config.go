package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"silverSignalBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Market data
	Symbol       string   // e.g. "SI=F" (silver futures)
	LookbackDays int      // history window fetched per cycle
	Intervals    []string // interval fallback order, finest first
	DataSource   string   // "yahoo" or "binance"

	// Binance (only for DataSource == "binance")
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceTestnet   bool

	// WhatsApp
	WhatsAppToken      string
	PhoneNumberID      string
	GraphAPIVersion    string
	WebhookVerifyToken string
	Recipients         []string // broadcast recipient ids

	// Signal cycle
	CycleInterval time.Duration // default 600s

	// Trend pass
	TrendWindow       int
	TrendThresholdPct float64

	// Persistence
	DBPath        string
	MaxStoredRows int // candle table cap, default 60
	PositionStore string
	RedisAddr     string
	RedisPassword string

	// HTTP server
	ServerAddr string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Market data
	cfg.Symbol = getEnv("SYMBOL", "SI=F")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.LookbackDays = getEnvAsInt("LOOKBACK_DAYS", 60)
	if cfg.LookbackDays <= 0 {
		errs = append(errs, "LOOKBACK_DAYS must be positive")
	}

	cfg.Intervals = splitList(getEnv("INTERVALS", "15m,1d"))
	if len(cfg.Intervals) == 0 {
		errs = append(errs, "INTERVALS must list at least one interval")
	}

	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", "yahoo"))
	if cfg.DataSource != "yahoo" && cfg.DataSource != "binance" {
		errs = append(errs, "DATA_SOURCE must be 'yahoo' or 'binance'")
	}

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceTestnet = getEnvAsBool("BINANCE_TESTNET", false)

	// WhatsApp
	cfg.WhatsAppToken = getEnv("WHATSAPP_ACCESS_TOKEN", "")
	if cfg.WhatsAppToken == "" {
		errs = append(errs, "WHATSAPP_ACCESS_TOKEN must be set")
	}
	cfg.PhoneNumberID = getEnv("WHATSAPP_PHONE_NUMBER_ID", "")
	if cfg.PhoneNumberID == "" {
		errs = append(errs, "WHATSAPP_PHONE_NUMBER_ID must be set")
	}
	cfg.GraphAPIVersion = getEnv("GRAPH_API_VERSION", "v18.0")
	cfg.WebhookVerifyToken = getEnv("WEBHOOK_VERIFY_TOKEN", "")
	if cfg.WebhookVerifyToken == "" {
		errs = append(errs, "WEBHOOK_VERIFY_TOKEN must be set")
	}
	cfg.Recipients = splitList(getEnv("RECIPIENT_WAIDS", ""))

	// Signal cycle
	cycleSeconds := getEnvAsInt("CYCLE_INTERVAL_SECONDS", 600)
	if cycleSeconds <= 0 {
		errs = append(errs, "CYCLE_INTERVAL_SECONDS must be positive")
	}
	cfg.CycleInterval = time.Duration(cycleSeconds) * time.Second

	// Trend pass
	cfg.TrendWindow = getEnvAsInt("TREND_WINDOW", 48)
	if cfg.TrendWindow <= 1 {
		errs = append(errs, "TREND_WINDOW must be greater than 1")
	}
	cfg.TrendThresholdPct = getEnvAsFloat("TREND_THRESHOLD_PCT", 0.4)
	if cfg.TrendThresholdPct <= 0 {
		errs = append(errs, "TREND_THRESHOLD_PCT must be positive")
	}

	// Persistence
	cfg.DBPath = getEnv("DB_PATH", "./data/silver_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.MaxStoredRows = getEnvAsInt("MAX_STORED_ROWS", 60)
	if cfg.MaxStoredRows <= 0 {
		errs = append(errs, "MAX_STORED_ROWS must be positive")
	}
	cfg.PositionStore = strings.ToLower(getEnv("POSITION_STORE", "sqlite"))
	if cfg.PositionStore != "sqlite" && cfg.PositionStore != "redis" {
		errs = append(errs, "POSITION_STORE must be 'sqlite' or 'redis'")
	}
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.PositionStore == "redis" && cfg.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR must be set when POSITION_STORE is 'redis'")
	}

	// HTTP server
	cfg.ServerAddr = getEnv("SERVER_ADDR", ":8000")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
