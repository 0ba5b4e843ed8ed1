package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// HistoryRepo persists tutor chat turns.
type HistoryRepo struct{ Pool PgxPool }

// NewHistoryRepo constructs a HistoryRepo with the given pool.
func NewHistoryRepo(p PgxPool) *HistoryRepo { return &HistoryRepo{Pool: p} }

// Append inserts turns and prunes everything older than the newest limit rows
// in a single transaction.
func (r *HistoryRepo) Append(ctx domain.Context, userID string, limit int, turns ...domain.Turn) error {
	tracer := otel.Tracer("repo.history")
	ctx, span := tracer.Start(ctx, "history.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "tutor_history"),
		attribute.Int("turns", len(turns)),
	)
	if len(turns) == 0 {
		return nil
	}

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=history.append.begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, t := range turns {
		if _, err := tx.Exec(ctx, `INSERT INTO tutor_history (user_id, role, content, created_at) VALUES ($1,$2,$3,$4)`,
			userID, string(t.Role), t.Content, now); err != nil {
			span.RecordError(err)
			return fmt.Errorf("op=history.append: %w", err)
		}
	}
	if limit > 0 {
		q := `DELETE FROM tutor_history WHERE user_id=$1 AND id NOT IN (
			SELECT id FROM tutor_history WHERE user_id=$1 ORDER BY id DESC LIMIT $2)`
		if _, err := tx.Exec(ctx, q, userID, limit); err != nil {
			span.RecordError(err)
			return fmt.Errorf("op=history.prune: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=history.append.commit: %w", err)
	}
	return nil
}

// List returns turns oldest first.
func (r *HistoryRepo) List(ctx domain.Context, userID string) ([]domain.Turn, error) {
	tracer := otel.Tracer("repo.history")
	ctx, span := tracer.Start(ctx, "history.List")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT role, content FROM tutor_history WHERE user_id=$1 ORDER BY id ASC`, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("op=history.list: %w", err)
	}
	defer rows.Close()
	out := []domain.Turn{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("op=history.list: %w", err)
		}
		out = append(out, domain.Turn{Role: domain.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=history.list: %w", err)
	}
	return out, nil
}
