// Package job runs collection jobs in the background and persists their
// state in redis.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sellerscout/internal/config"
	"sellerscout/internal/domain"
)

// Sentinel errors for job state reads.
var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job result not ready")
)

// connectionTimeout is the timeout for verifying the redis connection.
const connectionTimeout = 5 * time.Second

// StateStore persists job states by ID. No TTL is applied; lifecycle of
// finished jobs is the operator's concern.
type StateStore interface {
	Set(ctx context.Context, jobID string, state domain.JobState) error
	Get(ctx context.Context, jobID string) (*domain.JobState, error)
}

// RedisStore is the redis-backed job state store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient creates a redis client and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// NewRedisStore creates a job state store over an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func jobKey(jobID string) string {
	return "job:" + jobID
}

// Set serializes and stores the job state.
func (s *RedisStore) Set(ctx context.Context, jobID string, state domain.JobState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal job state: %w", err)
	}

	if setErr := s.client.Set(ctx, jobKey(jobID), data, 0).Err(); setErr != nil {
		return fmt.Errorf("failed to store job state: %w", setErr)
	}

	return nil
}

// Get returns the stored job state, or ErrJobNotFound.
func (s *RedisStore) Get(ctx context.Context, jobID string) (*domain.JobState, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job state: %w", err)
	}

	var state domain.JobState
	if unmarshalErr := json.Unmarshal(data, &state); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal job state: %w", unmarshalErr)
	}

	return &state, nil
}
