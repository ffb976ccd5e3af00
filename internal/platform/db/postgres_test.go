package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingPool struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
	calls    int
}

func (p *recordingPool) SetMaxOpenConns(n int) { p.maxOpen = n; p.calls++ }
func (p *recordingPool) SetMaxIdleConns(n int) { p.maxIdle = n; p.calls++ }
func (p *recordingPool) SetConnMaxLifetime(d time.Duration) {
	p.lifetime = d
	p.calls++
}

func TestPoolOptionsApply(t *testing.T) {
	pool := &recordingPool{}
	PoolOptions{MaxOpenConns: 8, MaxIdleConns: 20, ConnMaxLifetime: 30 * time.Minute}.apply(pool)

	require.Equal(t, 8, pool.maxOpen)
	require.Equal(t, 8, pool.maxIdle, "idle connections are capped at the open limit")
	require.Equal(t, 30*time.Minute, pool.lifetime)
}

func TestPoolOptionsZeroKeepsDriverDefaults(t *testing.T) {
	pool := &recordingPool{}
	PoolOptions{}.apply(pool)

	require.Zero(t, pool.calls)
	require.Equal(t, defaultPingTimeout, PoolOptions{}.pingTimeout())
	require.Equal(t, time.Second, PoolOptions{PingTimeout: time.Second}.pingTimeout())
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ", PoolOptions{})
	require.ErrorContains(t, err, "dsn is required")
}
