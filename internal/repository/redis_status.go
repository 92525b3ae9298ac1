package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// DefaultStatusTTL is how long a mirrored job status lives in Redis.
const DefaultStatusTTL = 24 * time.Hour

// DefaultChannelPrefix namespaces status keys and the pub/sub channel.
const DefaultChannelPrefix = "print"

// RedisStatusStore mirrors job statuses to Redis and publishes each update,
// so other processes can follow jobs without calling the API.
// Keys are "<prefix>:job:<id>"; updates go to "<prefix>:status".
type RedisStatusStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisStatusOption configures a RedisStatusStore.
type RedisStatusOption func(*RedisStatusStore)

// WithChannelPrefix replaces DefaultChannelPrefix.
func WithChannelPrefix(prefix string) RedisStatusOption {
	return func(s *RedisStatusStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStatusStore creates a status store; ttl <= 0 uses DefaultStatusTTL.
func NewRedisStatusStore(client *redis.Client, ttl time.Duration, opts ...RedisStatusOption) *RedisStatusStore {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	s := &RedisStatusStore{client: client, ttl: ttl, prefix: DefaultChannelPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatusStore) statusKey(jobID string) string {
	return s.prefix + ":job:" + jobID
}

// Channel is the pub/sub channel carrying every job status update.
func (s *RedisStatusStore) Channel() string {
	return s.prefix + ":status"
}

// Put stores the status and publishes it on Channel.
func (s *RedisStatusStore) Put(ctx context.Context, status model.PrintStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.statusKey(status.JobID), data, s.ttl)
	pipe.Publish(ctx, s.Channel(), data)
	_, err = pipe.Exec(ctx)
	return err
}

// Get returns the mirrored status or nil when the key is absent.
func (s *RedisStatusStore) Get(ctx context.Context, jobID string) (*model.PrintStatus, error) {
	data, err := s.client.Get(ctx, s.statusKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status model.PrintStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// HealthCheck pings Redis.
func (s *RedisStatusStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStatusStore) Close() error {
	return s.client.Close()
}
