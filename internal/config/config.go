package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool
	GinMode     string
	LogLevel    string

	PlatformCountry string
	PlatformFeeRate decimal.Decimal

	ProcessorAPIKey        string
	ProcessorBaseURL       string
	ProcessorWebhookSecret string
	ProcessorTimeout       time.Duration

	RedisURL          string
	OnboardingLockTTL time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "payouts"),
		DBPassword:  getEnv("DB_PASSWORD", "payouts_secret"),
		DBName:      getEnv("DB_NAME", "payouts"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		PlatformCountry: strings.ToUpper(getEnv("PLATFORM_COUNTRY", "US")),
		PlatformFeeRate: getDecimal("PLATFORM_FEE_RATE", decimal.RequireFromString("0.05")),

		ProcessorAPIKey:        getEnv("PROCESSOR_API_KEY", ""),
		ProcessorBaseURL:       getEnv("PROCESSOR_BASE_URL", "https://api.stripe.com"),
		ProcessorWebhookSecret: getEnv("PROCESSOR_WEBHOOK_SECRET", ""),
		ProcessorTimeout:       getDuration("PROCESSOR_TIMEOUT", 12*time.Second),

		RedisURL:          getEnv("REDIS_URL", ""),
		OnboardingLockTTL: getDuration("ONBOARDING_LOCK_TTL", 30*time.Second),
	}
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Validate rejects settings the payment rules cannot work with.
func (c *Config) Validate() error {
	if len(c.PlatformCountry) != 2 {
		return fmt.Errorf("PLATFORM_COUNTRY must be an ISO alpha-2 code, got %q", c.PlatformCountry)
	}
	if c.PlatformFeeRate.IsNegative() || c.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1), got %s", c.PlatformFeeRate)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid decimal, using default")
		return fallback
	}
	return d
}
