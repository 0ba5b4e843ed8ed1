// Package catalog loads the aptitude question bank from YAML or JSON.
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/quiz"
)

// file accepts either a bare list or {questions: [...]}.
type file struct {
	Questions []domain.QuizQuestion `yaml:"questions"`
}

// Decode parses questions from r. JSON input is accepted since it is valid YAML.
func Decode(r io.Reader) ([]domain.QuizQuestion, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.decode: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("op=catalog.decode: %w: %v", domain.ErrInvalidArgument, err)
	}
	var qs []domain.QuizQuestion
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Decode(&qs)
	} else {
		var f file
		err = node.Decode(&f)
		qs = f.Questions
	}
	if err != nil {
		return nil, fmt.Errorf("op=catalog.decode: %w: %v", domain.ErrInvalidArgument, err)
	}
	return qs, nil
}

// LoadFile reads path and builds a validated catalog.
func LoadFile(path string) (*quiz.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.load: %w", err)
	}
	defer func() { _ = f.Close() }()
	qs, err := Decode(f)
	if err != nil {
		return nil, err
	}
	c, err := quiz.NewCatalog(qs)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.load %s: %w", path, err)
	}
	return c, nil
}
