package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
)

const (
	LastRunKey = "cleanmedia:last_run"
	HistoryKey = "cleanmedia:runs"
	// HistorySize is how many summaries are kept in HistoryKey.
	HistorySize = 50
)

// RedisPublisher stores run summaries in Redis for dashboards and alerting.
type RedisPublisher struct {
	client *redis.Client
}

// compile-time check: *RedisPublisher must satisfy port.RunReporter
var _ port.RunReporter = (*RedisPublisher)(nil)

func NewRedisPublisher(addr, password string) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &RedisPublisher{client: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, s *model.RunSummary) error {
	logger.Debugf(ctx, "publishing summary of run %s to redis...", s.RunID)

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LastRunKey, data, 0)
		pipe.LPush(ctx, HistoryKey, data)
		pipe.LTrim(ctx, HistoryKey, 0, HistorySize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
