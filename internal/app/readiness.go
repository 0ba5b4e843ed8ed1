// Package app wires the HTTP router, readiness checks and background loops.
package app

import (
	"context"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/ai-interview-tutor/internal/adapter/httpserver"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisClient is the minimal interface of a Redis client needed for readiness.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// BuildReadinessChecks returns one check per configured backing store.
// Nil dependencies are skipped: the in-memory stores are always ready.
func BuildReadinessChecks(pool Pinger, rdb RedisClient) []httpserver.ReadyCheck {
	var checks []httpserver.ReadyCheck
	if pool != nil {
		checks = append(checks, httpserver.ReadyCheck{Name: "db", Check: pool.Ping})
	}
	if rdb != nil {
		checks = append(checks, httpserver.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return checks
}
