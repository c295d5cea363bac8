package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (INGEST_ prefix), flags, or YAML config files.
type Config struct {
	Addr             string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL      string `usage:"PostgreSQL connection URL (INGEST_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	StoreTokenPepper string `usage:"HMAC pepper for store token hashing" flag:"store-token-pepper"`
	OrderNumberMask  string `default:"{ID}" usage:"Custom order number mask ({ID} {YYYY} {YY} {MM} {DD})" flag:"order-number-mask"`
	Redis            RedisConfig
	RateLimit        RateLimitConfig
	Graceful         GracefulConfig
}

// RedisConfig selects the order-placed event publisher. An empty Addr logs
// events instead of publishing them.
type RedisConfig struct {
	Addr    string `default:"" usage:"Redis address for order-placed events" flag:"redis-addr"`
	Channel string `default:"orders.placed" usage:"Redis pub/sub channel" flag:"redis-channel"`
}

// RateLimitConfig controls the rate limiter: a sliding window approximated
// from two fixed windows, charged per client IP and then per store token.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per store token per window"`
	IPMax  int           `default:"400" usage:"Max requests per client IP per window, across tokens"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "INGEST",
		Files:     []string{"config.yaml", "/etc/ingest/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set INGEST_DATABASE_URL or DATABASE_URL")
	case c.StoreTokenPepper == "":
		return errors.New("store token pepper is required: set INGEST_STORE_TOKEN_PEPPER")
	case c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0:
		return errors.Errorf("rate limit must be positive, got %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	case c.RateLimit.IPMax < 0:
		return errors.Errorf("per-IP rate limit must not be negative, got %d", c.RateLimit.IPMax)
	}
	return nil
}

// applyPlatformDefaults maps DATABASE_URL and PORT, as set by hosting
// platforms, onto the INGEST_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.OrderNumberMask == "" {
		c.OrderNumberMask = "{ID}"
	}
}
