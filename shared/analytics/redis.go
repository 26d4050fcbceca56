package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// maxRedisVisits bounds the per-dealer visit list kept in Redis
const maxRedisVisits = 1000

// RedisVisitStore keeps recent visits and counters per dealer in Redis. It is
// the secondary copy of the visit log.
type RedisVisitStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVisitStore creates a store; keys expire after ttl when ttl > 0
func NewRedisVisitStore(client *redis.Client, ttl time.Duration) *RedisVisitStore {
	return &RedisVisitStore{client: client, ttl: ttl}
}

func (s *RedisVisitStore) Name() string {
	return "redis"
}

func visitsKey(dealerID uint) string {
	return fmt.Sprintf("visits:dealer:%d", dealerID)
}

func countKey(dealerID uint) string {
	return fmt.Sprintf("visits:dealer:%d:count", dealerID)
}

// Record appends the visit and bumps the dealer's total in one transaction
func (s *RedisVisitStore) Record(ctx context.Context, visit *models.VisitLog) error {
	data, err := json.Marshal(visit)
	if err != nil {
		return fmt.Errorf("failed to marshal visit: %w", err)
	}

	listKey := visitsKey(visit.DealerID)
	totalKey := countKey(visit.DealerID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, listKey, data)
		pipe.LTrim(ctx, listKey, -maxRedisVisits, -1)
		pipe.Incr(ctx, totalKey)
		if s.ttl > 0 {
			pipe.Expire(ctx, listKey, s.ttl)
			pipe.Expire(ctx, totalKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store visit in Redis: %w", err)
	}
	return nil
}

// Stats reads the dealer's counter and retained visits, oldest first
func (s *RedisVisitStore) Stats(ctx context.Context, dealerID uint) (*Stats, error) {
	raw, err := s.client.LRange(ctx, visitsKey(dealerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read visits from Redis: %w", err)
	}

	visits := make([]models.VisitLog, 0, len(raw))
	for _, item := range raw {
		var v models.VisitLog
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			continue
		}
		visits = append(visits, v)
	}

	total := int64(len(visits))
	count, err := s.client.Get(ctx, countKey(dealerID)).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return nil, fmt.Errorf("failed to read visit count from Redis: %w", err)
	default:
		if n, convErr := strconv.ParseInt(count, 10, 64); convErr == nil && n > total {
			total = n
		}
	}

	return newStats(dealerID, total, visits), nil
}
