// Package prompts loads interviewer personas and evaluation criteria from
// plain-text files.
package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

var extensions = []string{"", ".txt", ".md"}

// Store resolves names against two directory trees. Names may be bare
// ("ethan"), carry an extension ("ethan.txt"), or be prefixed with the
// directory name as clients of the old API sent them ("personas/ethan.txt").
type Store struct {
	personas fs.FS
	criteria fs.FS
	pDir     string
	cDir     string
}

// NewStore reads from the given directories on disk.
func NewStore(personasDir, criteriaDir string) *Store {
	return &Store{
		personas: os.DirFS(personasDir),
		criteria: os.DirFS(criteriaDir),
		pDir:     path.Base(personasDir),
		cDir:     path.Base(criteriaDir),
	}
}

// NewStoreFS reads from arbitrary filesystems.
func NewStoreFS(personas, criteria fs.FS) *Store {
	return &Store{personas: personas, criteria: criteria, pDir: "personas", cDir: "guidelines"}
}

// Persona returns the persona text for name.
func (s *Store) Persona(_ domain.Context, name string) (string, error) {
	text, err := lookup(s.personas, s.pDir, name)
	if err != nil {
		if errors.Is(err, domain.ErrPromptFileMissing) {
			return "", fmt.Errorf("op=prompts.persona: %w: %q", domain.ErrPersonaNotFound, name)
		}
		return "", fmt.Errorf("op=prompts.persona: %w", err)
	}
	return text, nil
}

// Criteria returns the evaluation criteria text for name.
func (s *Store) Criteria(_ domain.Context, name string) (string, error) {
	text, err := lookup(s.criteria, s.cDir, name)
	if err != nil {
		if errors.Is(err, domain.ErrPromptFileMissing) {
			return "", fmt.Errorf("op=prompts.criteria: %w: %q", domain.ErrCriteriaNotFound, name)
		}
		return "", fmt.Errorf("op=prompts.criteria: %w", err)
	}
	return text, nil
}

// clean turns a client supplied name into a path relative to the root.
func clean(dir, name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, dir+"/")
	if name == "" {
		return "", fmt.Errorf("%w: empty prompt name", domain.ErrInvalidArgument)
	}
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: invalid prompt name %q", domain.ErrInvalidArgument, name)
	}
	return name, nil
}

func lookup(fsys fs.FS, dir, name string) (string, error) {
	rel, err := clean(dir, name)
	if err != nil {
		return "", err
	}
	for _, ext := range extensions {
		if ext != "" && path.Ext(rel) != "" {
			break
		}
		b, err := fs.ReadFile(fsys, rel+ext)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", domain.ErrPromptFileMissing
}
