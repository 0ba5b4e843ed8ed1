// Package redisstore keeps quiz progress and tutor history in Redis.
package redisstore

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

const defaultPrefix = "tutor:"

// ProgressStore records submissions with a Lua script so the counting rule is
// applied atomically even with several server replicas.
type ProgressStore struct {
	rdb    *redis.Client
	prefix string
	script *redis.Script
}

// NewProgressStore wraps rdb. An empty prefix uses "tutor:".
func NewProgressStore(rdb *redis.Client, prefix string) *ProgressStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &ProgressStore{
		rdb:    rdb,
		prefix: prefix,
		script: redis.NewScript(luaRecordAnswer),
	}
}

// KEYS[1] answers hash (question id -> "1"/"0"), KEYS[2] score hash.
// ARGV[1] question id, ARGV[2] "1" when correct.
const luaRecordAnswer = `
local answers = KEYS[1]
local score = KEYS[2]
local qid = ARGV[1]
local ok = ARGV[2]

local prev = redis.call("HGET", answers, qid)
local dtotal = 0
local dcorrect = 0
if not prev then
  dtotal = 1
  if ok == "1" then dcorrect = 1 end
elseif prev == "0" and ok == "1" then
  dcorrect = 1
elseif prev == "1" and ok == "0" then
  dcorrect = -1
end

redis.call("HSET", answers, qid, ok)
local correct = redis.call("HINCRBY", score, "correct", dcorrect)
local total = redis.call("HINCRBY", score, "total", dtotal)
return {correct, total}
`

func (s *ProgressStore) answersKey(userID string) string {
	return s.prefix + "progress:" + userID + ":answers"
}

func (s *ProgressStore) scoreKey(userID string) string {
	return s.prefix + "progress:" + userID + ":score"
}

// Record applies one submission atomically and returns the updated progress.
func (s *ProgressStore) Record(ctx domain.Context, userID string, questionID int, isCorrect bool) (domain.UserProgress, error) {
	tracer := otel.Tracer("repo.progress")
	ctx, span := tracer.Start(ctx, "progress.redis.Record")
	defer span.End()

	flag := "0"
	if isCorrect {
		flag = "1"
	}
	keys := []string{s.answersKey(userID), s.scoreKey(userID)}
	res, err := s.script.Run(ctx, s.rdb, keys, strconv.Itoa(questionID), flag).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.record: %w", err)
	}
	if len(res) != 2 {
		return domain.UserProgress{}, fmt.Errorf("op=progress.record: %w: unexpected script result %v", domain.ErrInternal, res)
	}
	return s.Get(ctx, userID)
}

// Get loads the score and the answers map in one transaction.
func (s *ProgressStore) Get(ctx domain.Context, userID string) (domain.UserProgress, error) {
	tracer := otel.Tracer("repo.progress")
	ctx, span := tracer.Start(ctx, "progress.redis.Get")
	defer span.End()

	pipe := s.rdb.TxPipeline()
	scoreCmd := pipe.HMGet(ctx, s.scoreKey(userID), "correct", "total")
	answersCmd := pipe.HGetAll(ctx, s.answersKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.get: %w", err)
	}

	p := domain.UserProgress{Answers: map[int]bool{}}
	vals := scoreCmd.Val()
	if len(vals) == 2 {
		p.Correct = atoi(vals[0])
		p.Total = atoi(vals[1])
	}
	for k, v := range answersCmd.Val() {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		p.Answers[id] = v == "1"
	}
	return p, nil
}

func atoi(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
