package quiz

import (
	"fmt"
	"math"
	"strings"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// DefaultUserID is used when a caller does not identify itself.
const DefaultUserID = "default_user"

// Progress is the read model returned to callers.
type Progress struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// Tracker grades submissions against the catalog and records them in a store.
type Tracker struct {
	catalog *Catalog
	store   domain.ProgressStore
}

// NewTracker wires a catalog and a progress store.
func NewTracker(catalog *Catalog, store domain.ProgressStore) *Tracker {
	return &Tracker{catalog: catalog, store: store}
}

// Submit grades one answer and records it for userID.
func (t *Tracker) Submit(ctx domain.Context, userID string, questionID, selected int) (domain.Submission, error) {
	q, err := t.catalog.Get(questionID)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("op=tracker.submit: %w", err)
	}
	if selected < 0 || selected >= len(q.Options) {
		return domain.Submission{}, fmt.Errorf("op=tracker.submit: %w: selected_option_index %d out of range", domain.ErrInvalidArgument, selected)
	}
	correct := selected == q.CorrectOptionIndex
	if _, err := t.store.Record(ctx, normalizeUser(userID), questionID, correct); err != nil {
		return domain.Submission{}, fmt.Errorf("op=tracker.submit: %w", err)
	}
	return domain.Submission{IsCorrect: correct, CorrectOptionIndex: q.CorrectOptionIndex}, nil
}

// Progress returns the score of userID; unknown users have an empty score.
func (t *Tracker) Progress(ctx domain.Context, userID string) (Progress, error) {
	p, err := t.store.Get(ctx, normalizeUser(userID))
	if err != nil {
		return Progress{}, fmt.Errorf("op=tracker.progress: %w", err)
	}
	return Progress{
		Correct:  p.Correct,
		Total:    p.Total,
		Accuracy: math.Round(p.Accuracy()*10) / 10,
	}, nil
}

func normalizeUser(userID string) string {
	if domain.IsBlank(userID) {
		return DefaultUserID
	}
	return strings.TrimSpace(userID)
}
