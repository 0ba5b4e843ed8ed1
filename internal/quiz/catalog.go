// Package quiz serves aptitude questions and tracks per-user progress.
package quiz

import (
	"fmt"
	"math/rand/v2"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// Catalog is the read-only question bank.
type Catalog struct {
	questions []domain.QuizQuestion
	byID      map[int]int
	intn      func(n int) int
}

// NewCatalog validates every question and indexes them by id.
func NewCatalog(questions []domain.QuizQuestion) (*Catalog, error) {
	c := &Catalog{
		questions: make([]domain.QuizQuestion, 0, len(questions)),
		byID:      make(map[int]int, len(questions)),
		intn:      rand.IntN,
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("op=catalog.new: %w", err)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("op=catalog.new: %w: duplicate question id %d", domain.ErrInvalidArgument, q.ID)
		}
		c.byID[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	return c, nil
}

// Len returns the number of questions.
func (c *Catalog) Len() int { return len(c.questions) }

// Random draws a question uniformly.
func (c *Catalog) Random() (domain.QuizQuestion, error) {
	if len(c.questions) == 0 {
		return domain.QuizQuestion{}, fmt.Errorf("op=catalog.random: %w", domain.ErrCatalogEmpty)
	}
	return c.questions[c.intn(len(c.questions))], nil
}

// Get looks a question up by id.
func (c *Catalog) Get(id int) (domain.QuizQuestion, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.QuizQuestion{}, fmt.Errorf("op=catalog.get: %w: id %d", domain.ErrQuestionNotFound, id)
	}
	return c.questions[i], nil
}
