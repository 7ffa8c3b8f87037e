package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// RedisArchive stores the last notification in Redis, surviving process
// restarts of the ingestion service.
type RedisArchive struct {
	client *redis.Client
}

// NewRedisArchive connects to Redis at addr and verifies the connection.
func NewRedisArchive(ctx context.Context, addr string) (*RedisArchive, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("NewRedisArchive: pinging redis at %s: %w", addr, err)
	}
	return &RedisArchive{client: client}, nil
}

// SetLast implements the Archive interface. The slot has no TTL; it is
// overwritten by the next invocation.
func (a *RedisArchive) SetLast(ctx context.Context, p *domain.NotificationPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("SetLast: marshaling payload: %w", err)
	}
	if err := a.client.Set(ctx, lastNotificationKey, b, 0).Err(); err != nil {
		return fmt.Errorf("SetLast: writing slot: %w", err)
	}
	return nil
}

// Last implements the Archive interface.
func (a *RedisArchive) Last(ctx context.Context) (*domain.NotificationPayload, error) {
	b, err := a.client.Get(ctx, lastNotificationKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Last: reading slot: %w", err)
	}
	var p domain.NotificationPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("Last: unmarshaling payload: %w", err)
	}
	return &p, nil
}

// Close releases the Redis connection.
func (a *RedisArchive) Close() error {
	return a.client.Close()
}

var _ Archive = (*RedisArchive)(nil)
