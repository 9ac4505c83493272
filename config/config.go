package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalid marks a configuration that failed validation. Invalid
// configuration is fatal at startup and never silently corrected.
var ErrInvalid = errors.New("invalid configuration")

// Scraper modes.
const (
	ModeSynthetic = "synthetic"
	ModeLive      = "live"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Weights is the scoring weight vector. It must sum to 1.0.
type Weights struct {
	Multiple     float64
	ProfitMargin float64
	PriceValue   float64
	Age          float64
	Traffic      float64
}

// Sum returns the total of all weight components.
func (w Weights) Sum() float64 {
	return w.Multiple + w.ProfitMargin + w.PriceValue + w.Age + w.Traffic
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ScraperMode string

	PriceMin     int
	PriceMax     int
	DefaultLimit int
	MaxLimit     int

	RateLimitMs     int
	ScrapeTimeoutMs int
	MaxRetries      int

	StorageDriver string
	SQLitePath    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	CSVOutputPath string
	ChromeBin     string
	Debug         bool

	Weights Weights
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ScraperMode: getEnv("SCRAPER_MODE", ModeSynthetic),

		PriceMin:     getEnvInt("PRICE_MIN", 4000),
		PriceMax:     getEnvInt("PRICE_MAX", 50000),
		DefaultLimit: getEnvInt("DEFAULT_LIMIT", 10),
		MaxLimit:     getEnvInt("MAX_LIMIT", 50),

		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 5000),
		ScrapeTimeoutMs: getEnvInt("SCRAPE_TIMEOUT_MS", 90000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),

		StorageDriver: getEnv("STORAGE_DRIVER", DriverSQLite),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/scout.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scout"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scout123"),
		PostgresDB:       getEnv("POSTGRES_DB", "scout_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		Debug:         getEnv("DEBUG", "") != "",

		Weights: Weights{
			Multiple:     getEnvFloat("WEIGHT_MULTIPLE", 0.30),
			ProfitMargin: getEnvFloat("WEIGHT_PROFIT_MARGIN", 0.25),
			PriceValue:   getEnvFloat("WEIGHT_PRICE_VALUE", 0.20),
			Age:          getEnvFloat("WEIGHT_AGE", 0.15),
			Traffic:      getEnvFloat("WEIGHT_TRAFFIC", 0.10),
		},
	}
}

// Validate checks the loaded configuration and reports the first violation.
func (c *Config) Validate() error {
	if c.ScraperMode != ModeSynthetic && c.ScraperMode != ModeLive {
		return fmt.Errorf("%w: unknown scraper mode %q", ErrInvalid, c.ScraperMode)
	}
	if c.StorageDriver != DriverSQLite && c.StorageDriver != DriverPostgres {
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalid, c.StorageDriver)
	}
	if c.PriceMin < 0 || c.PriceMax < 0 {
		return fmt.Errorf("%w: price bounds must be non-negative", ErrInvalid)
	}
	if c.PriceMin > c.PriceMax {
		return fmt.Errorf("%w: PRICE_MIN %d exceeds PRICE_MAX %d", ErrInvalid, c.PriceMin, c.PriceMax)
	}
	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 {
		return fmt.Errorf("%w: limits must be positive", ErrInvalid)
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("%w: DEFAULT_LIMIT %d exceeds MAX_LIMIT %d", ErrInvalid, c.DefaultLimit, c.MaxLimit)
	}
	if c.RateLimitMs < 0 || c.ScrapeTimeoutMs <= 0 || c.MaxRetries <= 0 {
		return fmt.Errorf("%w: intervals and retries must be positive", ErrInvalid)
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: scoring weights sum to %.4f, want 1.0", ErrInvalid, sum)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RateLimit returns the minimum interval between pipeline runs.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

// ScrapeTimeout returns the deadline applied to one live acquisition.
func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.ScrapeTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
