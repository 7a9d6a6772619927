package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete server configuration, loadable from environment
// variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"checkout server listen address"`
	ReturnURL string `default:"http://localhost:3000/checkout/success" usage:"redirect target for out-of-band payment authentication" flag:"return-url"`

	Commerce  CommerceConfig
	Stripe    StripeConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CommerceConfig points at the commerce backend.
type CommerceConfig struct {
	URL             string `usage:"commerce backend base URL (CHECKOUT_COMMERCE_URL)" flag:"commerce-url"`
	PublishableKey  string `usage:"store API publishable key" flag:"publishable-key"`
	DefaultRegionID string `usage:"region assigned to new carts; first listed region when empty" flag:"default-region"`
}

// StripeConfig holds hosted payment provider credentials.
type StripeConfig struct {
	SecretKey string `usage:"payment provider secret key (CHECKOUT_STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	APIURL    string `default:"" usage:"payment provider API base URL override" flag:"stripe-api-url"`
}

// SessionConfig controls the cart identifier cookie.
type SessionConfig struct {
	CookieName    string `default:"cart_id" usage:"session cookie name" flag:"session-cookie"`
	SecureCookies bool   `default:"false" usage:"mark session cookies Secure" flag:"secure-cookies"`
}

// RateLimitConfig controls the per-session rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"max requests per window"`
	Window time.Duration `default:"1m"  usage:"rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Commerce.URL == "" {
		return nil, errors.New("commerce backend URL is required: set CHECKOUT_COMMERCE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) to the CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
