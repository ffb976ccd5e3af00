package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultPingTimeout = 5 * time.Second

// PoolOptions sizes the workshop connection pool. Submissions and votes hold
// a share lock on the session row for the whole transaction, so MaxOpenConns
// caps how many of them run at once. Zero values keep the driver defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// Postgres is the workshop database handle. It is only returned once the
// schema is in place.
type Postgres struct {
	DB *gorm.DB
}

// Open connects to Postgres, sizes the pool and applies the workshop schema.
func Open(ctx context.Context, dsn string, pool PoolOptions) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	// Repositories log failures through slog with workshop attributes.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	pg := &Postgres{DB: db}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	pool.apply(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, pool.pingTimeout())
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

type poolSettings interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

func (o PoolOptions) apply(pool poolSettings) {
	if o.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		idle := o.MaxIdleConns
		if o.MaxOpenConns > 0 && idle > o.MaxOpenConns {
			idle = o.MaxOpenConns
		}
		pool.SetMaxIdleConns(idle)
	}
	if o.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(o.ConnMaxLifetime)
	}
}

func (o PoolOptions) pingTimeout() time.Duration {
	if o.PingTimeout > 0 {
		return o.PingTimeout
	}
	return defaultPingTimeout
}

func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
