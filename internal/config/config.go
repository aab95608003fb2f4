package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	DBSlowQuery       time.Duration `mapstructure:"DB_SLOW_QUERY"`
	MigrationsDir     string        `mapstructure:"MIGRATIONS_DIR"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionMaxAge     int           `mapstructure:"SESSION_MAX_AGE"`
	SessionSecure     bool          `mapstructure:"SESSION_SECURE"`
	AuthJWTSecret     string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer        string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience      string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
}

// minSecretLen is the shortest session or token secret accepted outside development.
const minSecretLen = 32

var envKeys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"DB_SLOW_QUERY",
	"MIGRATIONS_DIR",
	"SESSION_SECRET",
	"SESSION_COOKIE_NAME",
	"SESSION_MAX_AGE",
	"SESSION_SECURE",
	"AUTH_JWT_SECRET",
	"AUTH_ISSUER",
	"AUTH_AUDIENCE",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
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
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SLOW_QUERY", "500ms")
	v.SetDefault("MIGRATIONS_DIR", "")
	v.SetDefault("SESSION_COOKIE_NAME", "records_session")
	v.SetDefault("SESSION_MAX_AGE", 86400*7)
	v.SetDefault("SESSION_SECURE", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The env value is a comma separated list; normalise whitespace around entries.
	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Every request resolves to the development user session.")
		log.Println("WARNING: Set ENV=production with SESSION_SECRET and AUTH_JWT_SECRET.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// both the cookie-store secret and the token verification secret must be set
// and long enough to be used as HMAC keys.
func (c *Config) Validate() error {
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SessionMaxAge < 0 {
		return fmt.Errorf("SESSION_MAX_AGE must not be negative, got %d", c.SessionMaxAge)
	}
	if c.IsDev() {
		return nil
	}
	if len(c.SessionSecret) < minSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes outside development (ENV=%q)", minSecretLen, c.Env)
	}
	if len(c.AuthJWTSecret) < minSecretLen {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes outside development (ENV=%q)", minSecretLen, c.Env)
	}
	if c.IsProduction() && !c.SessionSecure {
		return fmt.Errorf("SESSION_SECURE must be true in production")
	}
	return nil
}
