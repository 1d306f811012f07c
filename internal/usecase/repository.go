package usecase

import (
	"context"
	"time"

	"httparity/internal/domain"
)

// LogSource yields every observation recorded in one collaborator log.
// Implementations own the path and format; the engine never touches files
// directly.
type LogSource interface {
	Observations() ([]domain.Observation, error)
}

// ArtifactRepository persists and loads artifact documents keyed by
// (suite, case, runner).
type ArtifactRepository interface {
	Save(ctx context.Context, suite, caseName string, a domain.Artifact) (string, error)
	Load(ctx context.Context, suite, caseName string, runner domain.Runner) (domain.Artifact, error)
	Path(suite, caseName string, runner domain.Runner) string
}

// RunSpec describes one client process launch.
type RunSpec struct {
	Argv    []string
	Env     []string
	Dir     string
	Timeout time.Duration
}

// RunResult is the externally observable outcome of one client process.
type RunResult struct {
	ExitCode int
	Duration time.Duration
	Stdout   []string
	Stderr   []string
}

// ProcessRunner launches baseline/candidate client binaries. Runs are
// sequential by design; the engine never executes both runners at once
// against the same collaborator.
type ProcessRunner interface {
	Run(ctx context.Context, spec RunSpec) (RunResult, error)
}
