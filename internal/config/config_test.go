package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.ShippingFee.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, 5*time.Minute, cfg.CheckoutFreshness)
	assert.Equal(t, 400*time.Millisecond, cfg.AdminSearchDebounce)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_PORT", "9090")
	t.Setenv("STOREFRONT_SHIPPING_FEE", "9.5")
	t.Setenv("STOREFRONT_CHECKOUT_FRESHNESS", "90s")
	t.Setenv("STOREFRONT_STORE", "redis")
	t.Setenv("STOREFRONT_CORS_ALLOW_ORIGINS", "http://a.ro, http://b.ro")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.ShippingFee.Equal(decimal.RequireFromString("9.5")))
	assert.Equal(t, 90*time.Second, cfg.CheckoutFreshness)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, []string{"http://a.ro", "http://b.ro"}, cfg.CORSAllowOrigins)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown store":        {"STOREFRONT_STORE": "sqlite"},
		"postgres without dsn": {"STOREFRONT_STORE": "postgres"},
		"negative fee":         {"STOREFRONT_SHIPPING_FEE": "-1"},
		"malformed duration":   {"STOREFRONT_UPSTREAM_TIMEOUT": "soon"},
		"zero freshness":       {"STOREFRONT_CHECKOUT_FRESHNESS": "0s"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
