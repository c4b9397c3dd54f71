package ai

import (
	"context"
	"encoding/json"
	"time"

	"shutterbook/models"

	"github.com/go-redis/redis/v8"
)

const suggestionPrefix = "ai:suggestion:"

// SuggestionCache keeps the last suggestion per user.
type SuggestionCache interface {
	Get(ctx context.Context, userID string) (*models.Suggestion, error)
	Set(ctx context.Context, userID string, s *models.Suggestion) error
}

type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

// Get returns nil, nil when nothing is cached for the user.
func (s *RedisContextStore) Get(ctx context.Context, userID string) (*models.Suggestion, error) {
	data, err := s.client.Get(ctx, suggestionPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var suggestion models.Suggestion
	if err := json.Unmarshal([]byte(data), &suggestion); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (s *RedisContextStore) Set(ctx context.Context, userID string, suggestion *models.Suggestion) error {
	b, err := json.Marshal(suggestion)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, suggestionPrefix+userID, b, s.ttl).Err()
}
