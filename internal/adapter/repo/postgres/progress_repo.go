package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// ProgressRepo stores the latest answer per (user, question). Totals are
// derived from those rows so they always follow the counting rule.
type ProgressRepo struct{ Pool PgxPool }

// NewProgressRepo constructs a ProgressRepo with the given pool.
func NewProgressRepo(p PgxPool) *ProgressRepo { return &ProgressRepo{Pool: p} }

// Record upserts the answer and reads the updated progress back in one
// transaction, so the totals reflect exactly this submission.
func (r *ProgressRepo) Record(ctx domain.Context, userID string, questionID int, isCorrect bool) (domain.UserProgress, error) {
	tracer := otel.Tracer("repo.progress")
	ctx, span := tracer.Start(ctx, "progress.Record")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "quiz_answers"),
	)

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.record.begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `INSERT INTO quiz_answers (user_id, question_id, is_correct, updated_at) VALUES ($1,$2,$3,$4)
	ON CONFLICT (user_id, question_id) DO UPDATE SET is_correct=EXCLUDED.is_correct, updated_at=EXCLUDED.updated_at`
	if _, err := tx.Exec(ctx, q, userID, questionID, isCorrect, time.Now().UTC()); err != nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.record: %w", err)
	}
	p, err := loadProgress(ctx, tx, userID)
	if err != nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.record.commit: %w", err)
	}
	return p, nil
}

// Get loads every recorded answer for the user.
func (r *ProgressRepo) Get(ctx domain.Context, userID string) (domain.UserProgress, error) {
	tracer := otel.Tracer("repo.progress")
	ctx, span := tracer.Start(ctx, "progress.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "quiz_answers"),
	)
	p, err := loadProgress(ctx, r.Pool, userID)
	if err != nil {
		span.RecordError(err)
		return domain.UserProgress{}, fmt.Errorf("op=progress.get: %w", err)
	}
	return p, nil
}

// rowQuerier is satisfied by both the pool and a pgx.Tx.
type rowQuerier interface {
	Query(ctx domain.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadProgress(ctx domain.Context, q rowQuerier, userID string) (domain.UserProgress, error) {
	rows, err := q.Query(ctx, `SELECT question_id, is_correct FROM quiz_answers WHERE user_id=$1`, userID)
	if err != nil {
		return domain.UserProgress{}, err
	}
	defer rows.Close()

	p := domain.UserProgress{Answers: map[int]bool{}}
	for rows.Next() {
		var (
			qid int
			ok  bool
		)
		if err := rows.Scan(&qid, &ok); err != nil {
			return domain.UserProgress{}, err
		}
		p.Answers[qid] = ok
		p.Total++
		if ok {
			p.Correct++
		}
	}
	if err := rows.Err(); err != nil {
		return domain.UserProgress{}, err
	}
	return p, nil
}
