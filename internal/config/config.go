package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	LogLevel           string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL           string   `mapstructure:"REDIS_URL"`
	CacheTTLSeconds    int      `mapstructure:"CACHE_TTL_SECONDS"`
	AuthMode           string   `mapstructure:"AUTH_MODE"`
	JWTIssuer          string   `mapstructure:"JWT_ISSUER"`
	JWTAudience        string   `mapstructure:"JWT_AUDIENCE"`
	JWTSigningKey      string   `mapstructure:"JWT_SIGNING_KEY"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeoutSecs int      `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	LookaheadDaysMax   int      `mapstructure:"LOOKAHEAD_DAYS_MAX"`
	MigrationsDir      string   `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from ENV
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("LOOKAHEAD_DAYS_MAX", 31)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CACHE_TTL_SECONDS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("JWT_AUDIENCE")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")
	v.BindEnv("LOOKAHEAD_DAYS_MAX")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: set ENV=production and configure JWT_SIGNING_KEY for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise the mode is inferred: ENV=development runs
// without auth ("dev"), anything else requires bearer tokens ("jwt").
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "dev"
	}
	return "jwt"
}

// CacheTTL returns the availability cache TTL as a duration. Zero disables
// result caching entirely.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RequestTimeout returns the per-request deadline enforced by the timeout
// middleware.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Validate checks that the configuration is safe to run. In jwt mode a
// signing key must be present so real authentication is enforced.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "dev" && mode != "jwt" {
		return fmt.Errorf("AUTH_MODE must be \"dev\" or \"jwt\", got %q", mode)
	}
	if mode == "jwt" && c.JWTSigningKey == "" {
		return fmt.Errorf(
			"JWT_SIGNING_KEY must be set when AUTH_MODE is \"jwt\" (current ENV=%q). "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must not be negative, got %d", c.CacheTTLSeconds)
	}
	if c.LookaheadDaysMax < 1 {
		return fmt.Errorf("LOOKAHEAD_DAYS_MAX must be at least 1, got %d", c.LookaheadDaysMax)
	}
	return nil
}
