package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolConfig configures NewPool. Logger and SlowQuery are optional; when both
// are set, statements slower than SlowQuery are logged at warn level.
type PoolConfig struct {
	URL       string
	MaxConns  int32
	MinConns  int32
	Logger    *zerolog.Logger
	SlowQuery time.Duration
}

const healthCheckPeriod = 30 * time.Second

// NewPool opens a pgx pool and verifies it with a ping.
func NewPool(ctx context.Context, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	cfg.HealthCheckPeriod = healthCheckPeriod
	if pc.Logger != nil && pc.SlowQuery > 0 {
		cfg.ConnConfig.Tracer = &slowQueryTracer{logger: *pc.Logger, threshold: pc.SlowQuery, now: time.Now}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type queryStartKey struct{}

// slowQueryTracer logs statements that exceed threshold. Only the SQL text is
// logged; arguments carry patient data.
type slowQueryTracer struct {
	logger    zerolog.Logger
	threshold time.Duration
	now       func() time.Time
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, t.now())
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := t.now().Sub(start)
	if elapsed < t.threshold {
		return
	}
	evt := t.logger.Warn().Dur("elapsed", elapsed).Str("command", data.CommandTag.String())
	if data.Err != nil {
		evt = evt.Err(data.Err)
	}
	evt.Msg("slow query")
}
