package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClaimPrefix namespaces dedup keys in a shared Redis instance.
const redisClaimPrefix = "attendance:checkin:"

// MemoryDeduper keeps per-person claim times in a map. It only suppresses
// duplicates within one process; use RedisDeduper when running replicas.
// The map holds one timestamp per person ever claimed, which is bounded by
// the gallery size.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryDeduper creates an empty in-process deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time)}
}

// Claim reports whether this is the first claim for the person within the
// window. A non-positive window always claims.
func (d *MemoryDeduper) Claim(ctx context.Context, personID string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.seen[personID]; ok && now.Sub(last) < window {
		return false, nil
	}
	d.seen[personID] = now
	return true, nil
}

// RedisDeduper coordinates the dedup window across replicas through a
// shared Redis instance. A claim is a SET NX with the window as expiry, so
// exactly one replica wins each window.
type RedisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper connects to the Redis instance at the given URL and
// verifies the connection.
func NewRedisDeduper(url string) (*RedisDeduper, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisDeduper{client: client}, nil
}

// Claim reports whether this is the first claim for the person within the
// window. A non-positive window always claims.
func (d *RedisDeduper) Claim(ctx context.Context, personID string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	ok, err := d.client.SetNX(ctx, redisClaimPrefix+personID, "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("claiming check-in key: %w", err)
	}
	return ok, nil
}

// Close releases the Redis connection.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}

// NopNotifier drops every event. It stands in when no broker is configured.
type NopNotifier struct{}

// Publish discards the event.
func (NopNotifier) Publish(ctx context.Context, ev Event) error {
	return nil
}

var (
	_ Deduper  = (*MemoryDeduper)(nil)
	_ Deduper  = (*RedisDeduper)(nil)
	_ Notifier = NopNotifier{}
)
