package redisstore

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// HistoryStore keeps tutor chat turns in a Redis list per user.
type HistoryStore struct {
	rdb    *redis.Client
	prefix string
}

// NewHistoryStore wraps rdb. An empty prefix uses "tutor:".
func NewHistoryStore(rdb *redis.Client, prefix string) *HistoryStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &HistoryStore{rdb: rdb, prefix: prefix}
}

func (s *HistoryStore) key(userID string) string { return s.prefix + "history:" + userID }

// Append pushes turns and trims the list to the newest limit entries.
func (s *HistoryStore) Append(ctx domain.Context, userID string, limit int, turns ...domain.Turn) error {
	tracer := otel.Tracer("repo.history")
	ctx, span := tracer.Start(ctx, "history.redis.Append")
	defer span.End()

	if len(turns) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("op=history.append: %w", err)
		}
		vals = append(vals, b)
	}
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, s.key(userID), vals...)
	if limit > 0 {
		pipe.LTrim(ctx, s.key(userID), int64(-limit), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("op=history.append: %w", err)
	}
	return nil
}

// List returns the stored turns, oldest first.
func (s *HistoryStore) List(ctx domain.Context, userID string) ([]domain.Turn, error) {
	tracer := otel.Tracer("repo.history")
	ctx, span := tracer.Start(ctx, "history.redis.List")
	defer span.End()

	raw, err := s.rdb.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, fmt.Errorf("op=history.list: %w", err)
	}
	out := make([]domain.Turn, 0, len(raw))
	for _, r := range raw {
		var t domain.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("op=history.list: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
