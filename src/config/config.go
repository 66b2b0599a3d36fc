package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings
	JWTSecret         string
	AccessTokenExpiry time.Duration
	AllowedOrigins    []string

	// Bank data provider settings
	ProviderBaseURL      string
	ProviderClientID     string
	ProviderClientSecret string
	ProviderTokenURL     string
	ProviderTimeout      time.Duration

	// Detection engine tunables
	MinConfidence     int
	MinTransactions   int
	MinHistoryDays    int
	MinDistinctGroups int

	// Enrichment tunables
	PriceChangeThreshold     float64 // absolute currency units
	PriceChangeLookback      time.Duration
	AnomalyRelativeThreshold float64
	AnomalyAbsoluteFloor     float64
	AnomalyLookback          time.Duration

	// Scan scheduler settings
	ScanInterval     time.Duration
	ScanRetryBackoff time.Duration
	MaxScanAttempts  int
	ScanWorkers      int
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env
// file. It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}
	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getRequiredEnv("JWT_SECRET")

	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./subwatch.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Security
		JWTSecret:         jwtSecret,
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
		AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),

		// Provider
		ProviderBaseURL:      getEnv("PROVIDER_BASE_URL", "https://api.sandbox-bank.example.com"),
		ProviderClientID:     getEnv("PROVIDER_CLIENT_ID", ""),
		ProviderClientSecret: getEnv("PROVIDER_CLIENT_SECRET", ""),
		ProviderTokenURL:     getEnv("PROVIDER_TOKEN_URL", ""),
		// The upstream APIs publish no latency guarantees; 30s is our bound.
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),

		// Engine
		MinConfidence:     getEnvAsInt("MIN_CONFIDENCE", 70),
		MinTransactions:   getEnvAsInt("MIN_TRANSACTIONS", 5),
		MinHistoryDays:    getEnvAsInt("MIN_HISTORY_DAYS", 60),
		MinDistinctGroups: getEnvAsInt("MIN_DISTINCT_MERCHANTS", 2),

		// Enrichment
		PriceChangeThreshold:     getEnvAsFloat("PRICE_CHANGE_THRESHOLD", 0.50),
		PriceChangeLookback:      getEnvAsDuration("PRICE_CHANGE_LOOKBACK", 90*24*time.Hour),
		AnomalyRelativeThreshold: getEnvAsFloat("ANOMALY_RELATIVE_THRESHOLD", 0.10),
		AnomalyAbsoluteFloor:     getEnvAsFloat("ANOMALY_ABSOLUTE_FLOOR", 2.0),
		AnomalyLookback:          getEnvAsDuration("ANOMALY_LOOKBACK", 30*24*time.Hour),

		// Scheduler
		ScanInterval:     getEnvAsDuration("SCAN_INTERVAL", 30*time.Second),
		ScanRetryBackoff: getEnvAsDuration("SCAN_RETRY_BACKOFF", 5*time.Minute),
		MaxScanAttempts:  getEnvAsInt("MAX_SCAN_ATTEMPTS", 10),
		ScanWorkers:      getEnvAsInt("SCAN_WORKERS", 4),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, MinConfidence=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.MinConfidence)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the
// application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %f", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable as a slice.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
