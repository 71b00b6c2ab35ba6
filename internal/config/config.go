package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"storefront-api/internal/core"
	logx "storefront-api/pkg/logger"
	pkgredis "storefront-api/pkg/redis"
)

// AppConfig holds every setting of the storefront server, sourced from the
// environment (a .env file is loaded first for local runs).
type AppConfig struct {
	Environment    string `envconfig:"ENVIRONMENT" default:"development"`
	Port           string `envconfig:"PORT" default:"8085"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	CatalogPath    string `envconfig:"CATALOG_PATH"`

	// Infrastructure
	Redis    pkgredis.Config
	CacheTTL int `envconfig:"CACHE_TTL" default:"600"`

	Session   SessionConfig
	RateLimit RateLimitConfig
	Checkout  CheckoutConfig
	Auth      AuthConfig
	Cart      CartConfig
}

type SessionConfig struct {
	Secret string        `envconfig:"SESSION_SECRET" default:"change-me-in-production"`
	TTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`
}

type RateLimitConfig struct {
	RPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

type CheckoutConfig struct {
	FreeShippingThreshold float64       `envconfig:"CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50"`
	ShippingFee           float64       `envconfig:"CHECKOUT_SHIPPING_FEE" default:"9.99"`
	TaxRate               float64       `envconfig:"CHECKOUT_TAX_RATE" default:"0.08"`
	ProcessingDelay       time.Duration `envconfig:"CHECKOUT_PROCESSING_DELAY" default:"2s"`
}

type AuthConfig struct {
	LoginDelay  time.Duration `envconfig:"AUTH_LOGIN_DELAY" default:"1s"`
	UpdateDelay time.Duration `envconfig:"AUTH_UPDATE_DELAY" default:"500ms"`
}

type CartConfig struct {
	ClampToStock bool `envconfig:"CART_CLAMP_TO_STOCK" default:"false"`
}

// Load reads .env (if present) and processes the environment into AppConfig.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logx.Debug().Msg("no .env file found, using process environment")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

func (c *AppConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *AppConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
