// Package redisdb opens the optional redis connection shared by the project
// locker and the rate limiter.
package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the redis client.
type Options struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = 20
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Address, err)
	}
	return client, nil
}
