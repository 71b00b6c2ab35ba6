package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, core.Development, cfg.Env())
	assert.Equal(t, 50.0, cfg.Checkout.FreeShippingThreshold)
	assert.Equal(t, 9.99, cfg.Checkout.ShippingFee)
	assert.Equal(t, 0.08, cfg.Checkout.TaxRate)
	assert.Equal(t, 2*time.Second, cfg.Checkout.ProcessingDelay)
	assert.Equal(t, time.Second, cfg.Auth.LoginDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Auth.UpdateDelay)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTLDuration())
	assert.False(t, cfg.Cart.ClampToStock)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("CART_CLAMP_TO_STOCK", "true")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, core.Production, cfg.Env())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
	assert.True(t, cfg.Cart.ClampToStock)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("CHECKOUT_PROCESSING_DELAY", "soon")

	_, err := Load()
	assert.Error(t, err)
}
