package usecase

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	json "github.com/goccy/go-json"

	"httparity/internal/domain"
)

// loadSection decodes one extension-section file written by a client run.
// An empty path or a missing file means the run produced no such section;
// an unreadable or undecodable file is fatal, like a malformed artifact.
func loadSection[T any](path string) (*T, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedArtifact, path, err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedArtifact, path, err)
	}
	return out, nil
}

// loadSections fills the extension sections of one build input from the
// runner's section files.
func loadSections(tmpl CommandTemplate, in *BuildInput) error {
	var err error
	if in.PauseStrict, err = loadSection[domain.PauseResumeStrict](tmpl.EventsPath); err != nil {
		return err
	}
	if in.Pause, err = loadSection[domain.PauseResume](tmpl.PausePath); err != nil {
		return err
	}
	if in.CookieJar, err = loadSection[domain.CookieJar](tmpl.CookieJarPath); err != nil {
		return err
	}
	if in.Progress, err = loadSection[domain.ProgressSummary](tmpl.ProgressPath); err != nil {
		return err
	}
	if in.Error, err = loadSection[domain.ErrorInfo](tmpl.ErrorPath); err != nil {
		return err
	}
	return nil
}
