// Package relay carries SyncEvents between the web server and the bot worker
// over a Redis Stream, and provides the Redis-backed webhook dedupe and rate
// limiting the sync bridge relies on. The client handle is constructed in
// main and injected; nothing here holds package-level state.
package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// discordStream is the stream the server publishes Discord-bound events
	// to and the bot's consumer group reads from.
	discordStream = "kami:events:discord"
	consumerGroup = "kami:bot"

	streamMaxLen = 10000
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}
