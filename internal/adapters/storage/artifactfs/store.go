// Package artifactfs persists artifact documents as JSON files, one per
// (suite, case, runner), under a root directory owned by the caller.
package artifactfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"httparity/internal/domain"
)

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path returns the document location for one runner's artifact.
func (s *Store) Path(suite, caseName string, runner domain.Runner) string {
	return filepath.Join(s.root, suite, caseName, string(runner)+".json")
}

func (s *Store) Save(ctx context.Context, suite, caseName string, a domain.Artifact) (string, error) {
	path := s.Path(suite, caseName, a.Runner)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads one artifact document. Unreadable or invalid documents are
// fatal (ErrMalformedArtifact); they indicate broken instrumentation, not a
// behavioral difference.
func (s *Store) Load(ctx context.Context, suite, caseName string, runner domain.Runner) (domain.Artifact, error) {
	return LoadFile(s.Path(suite, caseName, runner))
}

// LoadFile decodes an artifact document from an arbitrary path.
func LoadFile(path string) (domain.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedArtifact, path, err)
	}
	var a domain.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedArtifact, path, err)
	}
	return a, nil
}
