// Package config loads the storefront settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"gofalre.io/storefront/checkout"
)

type Config struct {
	APIBaseURL string
	LogLevel   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL string

	ProductCacheTTL time.Duration

	Checkout checkout.Config
}

func Load() Config {
	return Config{
		APIBaseURL:      getEnv("STOREFRONT_API_URL", "http://localhost:8080/api"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		NATSURL:         getEnv("NATS_URL", ""),
		ProductCacheTTL: getEnvDuration("PRODUCT_CACHE_TTL", catalogTTLDefault),
		Checkout: checkout.Config{
			FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", checkout.DefaultFreeShippingThreshold),
			ShippingFee:           getEnvFloat("SHIPPING_FEE", checkout.DefaultShippingFee),
			TaxRate:               getEnvFloat("TAX_RATE", checkout.DefaultTaxRate),
		},
	}
}

const catalogTTLDefault = 30 * time.Minute

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
