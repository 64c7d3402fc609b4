package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50.0, cfg.Checkout.FreeShippingThreshold)
	assert.Equal(t, 5.99, cfg.Checkout.ShippingFee)
	assert.Equal(t, 0.10, cfg.Checkout.TaxRate)
	assert.Equal(t, 30*time.Minute, cfg.ProductCacheTTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api")
	t.Setenv("TAX_RATE", "0.2")
	t.Setenv("PRODUCT_CACHE_TTL", "5m")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, "https://shop.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 0.2, cfg.Checkout.TaxRate)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.Zero(t, cfg.RedisDB)
}
