package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"httparity/internal/domain"
	"httparity/pkg/shared/correlate"
)

// CommandTemplate is the argv/env template for one runner. {url} and {id}
// placeholders are substituted per invocation.
//
// The section paths name JSON files the client harness writes during its
// run; each populates one extension section of the artifact. A configured
// path whose file does not exist after the run means the client did not
// produce that section (e.g. no error on a successful run).
type CommandTemplate struct {
	Argv         []string
	Env          []string
	Dir          string
	DownloadPath string // file the client writes the response body to

	EventsPath    string // pause_resume_strict trace
	PausePath     string // legacy pause_resume counters
	CookieJarPath string
	ProgressPath  string
	ErrorPath     string
}

// GateCase is one differential test case: the same interaction executed by
// the baseline and the candidate client, observed through one collaborator
// log.
type GateCase struct {
	Suite string
	Name  string
	URL   string // without correlation id

	Pattern       Pattern
	ExpectedCount int // 0 = any (at least one)
	// SelectRange narrows the artifact to the first Range-carrying
	// observation (resume-download cases).
	SelectRange bool

	Source    LogSource
	Baseline  CommandTemplate
	Candidate CommandTemplate

	SummarizeConnections bool
	Timeout              time.Duration
}

// CaseResult is the outcome of one gate case.
type CaseResult struct {
	OK            bool
	Diffs         []string
	BaselinePath  string
	CandidatePath string
}

// DebugCollector copies collaborator logs into a per-case debug directory.
// Collection is best-effort and must never fail a passing comparison.
type DebugCollector interface {
	Collect(suite, caseName string)
}

// GateService orchestrates one case end to end: run process, extract
// observations, resolve the chain, build and persist the artifact, compare.
// Baseline and candidate run strictly sequentially so correlation-id log
// filtering stays unambiguous.
type GateService struct {
	runner    ProcessRunner
	artifacts ArtifactRepository
	extract   *ExtractService
	collector DebugCollector
	logger    *zerolog.Logger
}

func NewGateService(r ProcessRunner, a ArtifactRepository, logger *zerolog.Logger) *GateService {
	return &GateService{
		runner:    r,
		artifacts: a,
		extract:   NewExtractService(),
		logger:    logger,
	}
}

// SetDebugCollector enables failure-time log collection.
func (g *GateService) SetDebugCollector(c DebugCollector) { g.collector = c }

// RunCase executes baseline then candidate and compares the two artifacts.
// Extraction or persistence failures abort the case; comparison mismatches
// are returned in full, never as an error.
func (g *GateService) RunCase(ctx context.Context, c GateCase) (CaseResult, error) {
	base, basePath, err := g.runOne(ctx, c, domain.RunnerBaseline, c.Baseline)
	if err != nil {
		g.collectDebug(c)
		return CaseResult{}, fmt.Errorf("baseline: %w", err)
	}
	cand, candPath, err := g.runOne(ctx, c, domain.RunnerCandidate, c.Candidate)
	if err != nil {
		g.collectDebug(c)
		return CaseResult{}, fmt.Errorf("candidate: %w", err)
	}

	ok, diffs := CompareArtifacts(base, cand)
	if !ok {
		g.logger.Warn().Str("suite", c.Suite).Str("case", c.Name).Int("diffs", len(diffs)).Msg("artifacts mismatch")
		g.collectDebug(c)
	} else {
		g.logger.Info().Str("suite", c.Suite).Str("case", c.Name).Msg("artifacts match")
	}
	return CaseResult{OK: ok, Diffs: diffs, BaselinePath: basePath, CandidatePath: candPath}, nil
}

func (g *GateService) runOne(ctx context.Context, c GateCase, runner domain.Runner, tmpl CommandTemplate) (domain.Artifact, string, error) {
	id := correlate.NewID(c.Name + "__" + string(runner))
	url := correlate.Append(c.URL, id)

	spec := RunSpec{
		Argv:    substitute(tmpl.Argv, url, id),
		Env:     substitute(tmpl.Env, url, id),
		Dir:     tmpl.Dir,
		Timeout: c.Timeout,
	}
	g.logger.Debug().Str("runner", string(runner)).Strs("argv", spec.Argv).Msg("launching client")
	res, err := g.runner.Run(ctx, spec)
	if err != nil {
		return domain.Artifact{}, "", err
	}

	var obs []domain.Observation
	if c.ExpectedCount > 0 {
		obs, err = g.extract.ForIDCount(c.Source, id, c.ExpectedCount)
	} else {
		obs, err = g.extract.ForID(c.Source, id)
	}
	if err != nil {
		return domain.Artifact{}, "", err
	}

	ordered := ResolveChain(c.Pattern, obs)
	if c.SelectRange {
		rangeObs, err := g.extract.SelectRange(ordered)
		if err != nil {
			return domain.Artifact{}, "", err
		}
		ordered = []domain.Observation{rangeObs}
	}

	in := BuildInput{
		Runner:               runner,
		Observations:         ordered,
		Result:               res,
		SummarizeConnections: c.SummarizeConnections,
	}
	if err := loadSections(tmpl, &in); err != nil {
		return domain.Artifact{}, "", err
	}
	if tmpl.DownloadPath != "" {
		body, err := os.ReadFile(tmpl.DownloadPath)
		if err != nil {
			return domain.Artifact{}, "", fmt.Errorf("read download: %w", err)
		}
		in.FinalBodyLen = int64(len(body))
		in.FinalBodySHA = domain.SHA256Hex(body)
	}

	artifact := BuildArtifact(in)
	path, err := g.artifacts.Save(ctx, c.Suite, c.Name, artifact)
	if err != nil {
		return domain.Artifact{}, "", err
	}
	return artifact, path, nil
}

func (g *GateService) collectDebug(c GateCase) {
	if g.collector != nil {
		g.collector.Collect(c.Suite, c.Name)
	}
}

func substitute(values []string, url, id string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, "{url}", url)
		v = strings.ReplaceAll(v, "{id}", id)
		out[i] = v
	}
	return out
}
