// Package runner launches baseline/candidate client binaries and captures
// their externally observable process result.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"httparity/internal/usecase"
)

type Exec struct{}

func New() *Exec { return &Exec{} }

// Run executes one client process to completion. A non-zero exit status is
// a result, not an error: error paths are themselves under differential
// test. Only failures to launch (or a dead context) are errors.
func (e *Exec) Run(ctx context.Context, spec usecase.RunSpec) (usecase.RunResult, error) {
	if len(spec.Argv) == 0 {
		return usecase.RunResult{}, errors.New("empty argv")
	}
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := usecase.RunResult{
		Duration: time.Since(start),
		Stdout:   splitLines(stdout.String()),
		Stderr:   splitLines(stderr.String()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("launch %s: %w", spec.Argv[0], err)
	}
	return res, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
