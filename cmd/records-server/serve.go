package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/records/internal/config"
	"github.com/ehr/records/internal/domain/note"
	"github.com/ehr/records/internal/domain/patient"
	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/metrics"
	"github.com/ehr/records/internal/platform/middleware"
	"github.com/ehr/records/internal/platform/session"
)

const (
	version         = "0.1.0"
	requestTimeout  = 15 * time.Second
	bodyLimit       = "1M"
	shutdownTimeout = 10 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the records API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// newResolver picks how sessions are established. Development without a
// token secret signs every request in as the development user.
func newResolver(cfg *config.Config, logger zerolog.Logger) (session.Resolver, *session.CookieResolver) {
	if cfg.IsDev() && cfg.AuthJWTSecret == "" {
		logger.Warn().Str("user_id", session.DevUser.ID).Msg("no AUTH_JWT_SECRET, using development sessions")
		return session.DevResolver{}, nil
	}
	verifier := session.NewVerifier(session.TokenConfig{
		Secret:   []byte(cfg.AuthJWTSecret),
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
	})
	store := session.NewCookieStore(session.CookieOptions{
		Name:   cfg.SessionCookieName,
		Secret: cfg.SessionSecret,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.SessionSecure,
	})
	cookies := session.NewCookieResolver(store, cfg.SessionCookieName, verifier, logger)
	return cookies, cookies
}

// routerDeps is everything newRouter mounts. pool may be nil, which drops the
// database health endpoint and the per-request connection.
type routerDeps struct {
	cfg         *config.Config
	logger      zerolog.Logger
	pool        *pgxpool.Pool
	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics
	resolver    session.Resolver
	cookies     *session.CookieResolver
	patients    *patient.Service
	notes       *note.Service
}

func newRouter(d routerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.Metrics(d.httpMetrics))
	e.Use(middleware.RateLimit(rateLimitConfig(d.cfg)))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.RequestTimeout(requestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if d.pool != nil {
		e.GET("/health/db", db.HealthHandler(d.pool))
	}
	if d.registry != nil {
		e.GET("/metrics", metrics.Handler(d.registry))
	}

	authGroup := e.Group("/auth")
	api := e.Group("/api/v1", session.Guard(d.resolver, d.logger))
	if d.pool != nil {
		api.Use(db.ConnMiddleware(d.pool))
	}
	api.Use(middleware.Audit(d.logger))

	session.NewHandler(d.cookies).RegisterRoutes(authGroup, api)
	patient.NewHandler(d.patients).RegisterRoutes(api)
	note.NewHandler(d.notes).RegisterRoutes(api)

	return e
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:       cfg.DatabaseURL,
		MaxConns:  cfg.DBMaxConns,
		MinConns:  cfg.DBMinConns,
		Logger:    &logger,
		SlowQuery: cfg.DBSlowQuery,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Metrics
	registry := metrics.NewRegistry()
	opMetrics, err := metrics.NewOperationMetrics(registry)
	if err != nil {
		return fmt.Errorf("register operation metrics: %w", err)
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	resolver, cookies := newResolver(cfg, logger)

	e := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		registry:    registry,
		httpMetrics: httpMetrics,
		resolver:    resolver,
		cookies:     cookies,
		patients:    patient.NewService(patient.NewRepo(pool), logger, opMetrics),
		notes:       note.NewService(note.NewRepo(pool), logger, opMetrics),
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serverErr:
		if ok {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
