package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	RedisURL       string
	AllowedOrigins string

	BuckPayAPIURL   string
	BuckPayAPIToken string

	UtmifyAPIURL   string
	UtmifyAPIToken string
	UtmifyPlatform string

	ViaCEPBaseURL string

	FreeShippingThreshold float64
	ShippingFee           float64
	CartMaxQuantity       int

	PaymentWindow     time.Duration
	PollInterval      time.Duration
	CountdownInterval time.Duration

	CartTTL    time.Duration
	SessionTTL time.Duration

	ClearCartOnPayment bool
}

func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		BuckPayAPIURL:   getEnv("BUCKPAY_API_URL", "https://api.realtechdev.com.br/v1"),
		BuckPayAPIToken: os.Getenv("BUCKPAY_API_TOKEN"),

		UtmifyAPIURL:   os.Getenv("UTMIFY_API_URL"),
		UtmifyAPIToken: os.Getenv("UTMIFY_API_TOKEN"),
		UtmifyPlatform: getEnv("UTMIFY_PLATFORM", "tudoakilo"),

		ViaCEPBaseURL: getEnv("VIACEP_BASE_URL", "https://viacep.com.br"),

		FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", 49.90),
		ShippingFee:           getEnvFloat("SHIPPING_FEE", 19.74),
		CartMaxQuantity:       getEnvInt("CART_MAX_QUANTITY", 4),

		PaymentWindow:     getEnvDuration("PAYMENT_WINDOW", 10*time.Minute),
		PollInterval:      getEnvDuration("POLL_INTERVAL", 3*time.Second),
		CountdownInterval: getEnvDuration("COUNTDOWN_INTERVAL", time.Second),

		CartTTL:    getEnvDuration("CART_TTL", 24*time.Hour),
		SessionTTL: getEnvDuration("SESSION_TTL", time.Hour),

		ClearCartOnPayment: getEnvBool("CLEAR_CART_ON_PAYMENT", true),
	}

	if cfg.BuckPayAPIToken == "" {
		return nil, fmt.Errorf("missing required environment variable BUCKPAY_API_TOKEN")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
