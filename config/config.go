package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	LogFile       string
	DBUrl         string // empty runs the service on the in-memory store
	JWTSecret     string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Integrity Ledger
	IntegritySecret  string
	IntegrityBackend string // postgres, r2
	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2Timeout         time.Duration
	// Cache
	CacheMasterDataTTL time.Duration
	// Settlement Rules
	SettlementMaxAttempts int
	SettlementBackoffStep time.Duration
	ReconcileTolerance    float64
	ComboTolerance        float64
	DefaultItemWeight     float64
	LegacyShippingSingle  float64
	LegacyShippingMulti   float64
	DefaultStockLocation  string
	// Rate Limit
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		IntegritySecret:  getEnv("INTEGRITY_SECRET", "default_integrity_CHANGE_ME"),
		IntegrityBackend: getEnv("INTEGRITY_BACKEND", "postgres"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Timeout:         getDurationEnv("R2_TIMEOUT", 10*time.Second),

		// Promotions and shipping rules change rarely; 5m keeps admin edits visible quickly
		CacheMasterDataTTL: getDurationEnv("CACHE_MASTER_DATA_TTL", 5*time.Minute),

		SettlementMaxAttempts: getIntEnv("SETTLEMENT_MAX_ATTEMPTS", 3),
		SettlementBackoffStep: getDurationEnv("SETTLEMENT_BACKOFF_STEP", 200*time.Millisecond),
		ReconcileTolerance:    getFloatEnv("RECONCILE_TOLERANCE", 1),
		ComboTolerance:        getFloatEnv("COMBO_TOLERANCE", 2),
		DefaultItemWeight:     getFloatEnv("DEFAULT_ITEM_WEIGHT", 1.0),
		LegacyShippingSingle:  getFloatEnv("LEGACY_SHIPPING_SINGLE", 380),
		LegacyShippingMulti:   getFloatEnv("LEGACY_SHIPPING_MULTI", 500),
		DefaultStockLocation:  getEnv("DEFAULT_STOCK_LOCATION", "main"),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.DBUrl == "" {
		log.Println("WARNING: DB_DSN not set, running on the in-memory store")
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	if c.IntegritySecret == "default_integrity_CHANGE_ME" {
		log.Println("WARNING: Using default integrity secret. Order hashes are forgeable.")
	}
	if c.IntegrityBackend != "postgres" && c.IntegrityBackend != "r2" {
		log.Fatalf("CRITICAL: INTEGRITY_BACKEND must be 'postgres' or 'r2', got '%s'", c.IntegrityBackend)
	}
	if c.IntegrityBackend == "r2" && c.R2BucketName == "" {
		log.Fatal("CRITICAL: R2_BUCKET_NAME is required when INTEGRITY_BACKEND=r2")
	}
	if c.SettlementMaxAttempts < 1 {
		log.Fatal("CRITICAL: SETTLEMENT_MAX_ATTEMPTS must be at least 1")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
