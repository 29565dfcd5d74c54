package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"procurement/internal/core"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string
	LogLevel       string
	BodyLimitBytes int64

	Withholding WithholdingConfig
}

// WithholdingConfig holds the WITHHOLDING_* settings. A nil field is unset;
// a set field wins over the withholding_tax_types row for the same rate.
type WithholdingConfig struct {
	Threshold      *decimal.Decimal
	DefaultRate    *decimal.Decimal
	FeesRealRate   *decimal.Decimal
	FeesFlatRate   *decimal.Decimal
	RentRate       *decimal.Decimal
	CommissionRate *decimal.Decimal
}

// Overrides returns the settings as pinned rate table values.
func (w WithholdingConfig) Overrides() core.RateOverrides {
	return core.RateOverrides{
		Threshold:  w.Threshold,
		Default:    w.DefaultRate,
		FeesReal:   w.FeesRealRate,
		FeesFlat:   w.FeesFlatRate,
		Rent:       w.RentRate,
		Commission: w.CommissionRate,
	}
}

// RateTable returns the statutory table with the settings applied. It is
// the table used when no database is available.
func (w WithholdingConfig) RateTable() core.RateTable {
	return w.Overrides().Apply(core.DefaultRateTable())
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL:    strings.TrimSpace(getenv("DATABASE_URL", "")),
		ServerPort:     getenv("SERVER_PORT", "8080"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", ""),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		BodyLimitBytes: getenvInt64("REQUEST_BODY_LIMIT", 1<<20),
		Withholding: WithholdingConfig{
			Threshold:      getenvDecimal("WITHHOLDING_THRESHOLD"),
			DefaultRate:    getenvDecimal("WITHHOLDING_DEFAULT_RATE"),
			FeesRealRate:   getenvDecimal("WITHHOLDING_FEES_REAL_RATE"),
			FeesFlatRate:   getenvDecimal("WITHHOLDING_FEES_FLAT_RATE"),
			RentRate:       getenvDecimal("WITHHOLDING_RENT_RATE"),
			CommissionRate: getenvDecimal("WITHHOLDING_COMMISSION_RATE"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDecimal(key string) *decimal.Decimal {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.IsNegative() {
		log.Printf("config: ignoring invalid %s=%q", key, value)
		return nil
	}
	return &parsed
}
