package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Oversold policies applied when a post-payment stock decrement fails.
// "review" cancels the decrement for that item and flags the order for
// operator follow-up; "clamp" takes whatever stock is left.
const (
	OversoldPolicyReview = "review"
	OversoldPolicyClamp  = "clamp"
)

type Config struct {
	Env              string
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	RedisAddr        string
	RedisPassword    string
	StripeSecretKey  string
	StripeWebhookKey string
	FrontendURL      string
	Currency         string
	OversoldPolicy   string
	OrderSNSTopicARN string // SNS topic ARN for order events; empty disables fan-out
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8089"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		StripeSecretKey:  os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		Currency:         getEnv("CURRENCY", "eur"),
		OversoldPolicy:   getEnv("OVERSOLD_POLICY", OversoldPolicyReview),
		OrderSNSTopicARN: os.Getenv("ORDER_SNS_TOPIC_ARN"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required postgres environment variables")
	}
	if cfg.StripeSecretKey == "" || cfg.StripeWebhookKey == "" {
		return nil, fmt.Errorf("missing required stripe environment variables")
	}
	if cfg.OversoldPolicy != OversoldPolicyReview && cfg.OversoldPolicy != OversoldPolicyClamp {
		return nil, fmt.Errorf("invalid OVERSOLD_POLICY %q", cfg.OversoldPolicy)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
