package publisher

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier appends run summaries to a Redis stream, one entry per
// finished run. Consumers tail the stream to trigger downstream loads.
type RedisNotifier struct {
	client *redis.Client
	stream string
}

var _ Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(addr string, db int, stream string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisNotifier{client: client, stream: stream}, nil
}

// NotifyRun appends one entry with the summary fields.
func (n *RedisNotifier) NotifyRun(ctx context.Context, fields map[string]interface{}) error {
	return n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: fields,
	}).Err()
}

// Close closes the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
