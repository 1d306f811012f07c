package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"httparity/internal/domain"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// gateHarness stands in for the client process and the collaborator log at
// once: Run records the substituted correlation id and writes the section
// files the case expects, and Observations replays canned observations
// under that id.
type gateHarness struct {
	lastID   string
	calls    int
	sections func(call int, id string) // writes per-run section files
	obs      []domain.Observation
}

func (h *gateHarness) Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	h.calls++
	h.lastID = spec.Argv[len(spec.Argv)-1]
	if h.sections != nil {
		h.sections(h.calls, h.lastID)
	}
	return RunResult{ExitCode: 0}, nil
}

func (h *gateHarness) Observations() ([]domain.Observation, error) {
	out := make([]domain.Observation, len(h.obs))
	for i, o := range h.obs {
		o.CorrelationID = h.lastID
		out[i] = o
	}
	return out, nil
}

type memRepo struct {
	saved map[string]domain.Artifact
}

func newMemRepo() *memRepo { return &memRepo{saved: map[string]domain.Artifact{}} }

func (m *memRepo) Path(suite, caseName string, runner domain.Runner) string {
	return suite + "/" + caseName + "/" + string(runner)
}

func (m *memRepo) Save(ctx context.Context, suite, caseName string, a domain.Artifact) (string, error) {
	key := m.Path(suite, caseName, a.Runner)
	m.saved[key] = a
	return key, nil
}

func (m *memRepo) Load(ctx context.Context, suite, caseName string, runner domain.Runner) (domain.Artifact, error) {
	a, ok := m.saved[m.Path(suite, caseName, runner)]
	if !ok {
		return domain.Artifact{}, domain.ErrMalformedArtifact
	}
	return a, nil
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal section: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write section: %v", err)
	}
}

func strictTrace(pauseOffset int64) domain.PauseResumeStrict {
	return domain.PauseResumeStrict{
		Schema:      "pause_resume_events/1",
		Proto:       "h2",
		PauseOffset: pauseOffset,
		Events: []domain.PauseResumeEvent{
			{Seq: 1, TUS: 0, Type: domain.EventStart},
			{Seq: 2, TUS: 10, Type: domain.EventPauseReq, BytesDeliveredTotal: pauseOffset},
			{Seq: 3, TUS: 20, Type: domain.EventPauseEffective, BytesDeliveredTotal: pauseOffset, BytesWrittenTotal: pauseOffset},
			{Seq: 4, TUS: 30, Type: domain.EventResumeReq, BytesDeliveredTotal: pauseOffset, BytesWrittenTotal: pauseOffset},
			{Seq: 5, TUS: 40, Type: domain.EventFinished, BytesDeliveredTotal: 4, BytesWrittenTotal: 4},
		},
	}
}

func TestRunCaseLoadsSectionFiles(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.json")
	jarPath := filepath.Join(dir, "cookiejar.json")
	progressPath := filepath.Join(dir, "progress.json")
	downloadPath := filepath.Join(dir, "body.bin")

	h := &gateHarness{
		obs:      []domain.Observation{{Method: "GET", URL: "/data/doc.bin", Status: 200, Protocol: domain.ProtocolH2}},
		sections: func(call int, id string) {},
	}
	h.sections = func(call int, id string) {
		writeJSON(t, eventsPath, strictTrace(2))
		writeJSON(t, jarPath, domain.CookieJar{Records: 1, SHA256: "aa"})
		writeJSON(t, progressPath, domain.ProgressSummary{
			Download: &domain.ProgressLane{Monotonic: true, NowMax: 4, TotalMax: 4},
		})
		if err := os.WriteFile(downloadPath, []byte("xxxx"), 0o644); err != nil {
			t.Fatalf("write download: %v", err)
		}
	}

	repo := newMemRepo()
	gate := NewGateService(h, repo, nopLogger())
	tmpl := CommandTemplate{
		Argv:          []string{"client", "{id}"},
		DownloadPath:  downloadPath,
		EventsPath:    eventsPath,
		CookieJarPath: jarPath,
		ProgressPath:  progressPath,
		ErrorPath:     filepath.Join(dir, "error.json"), // never written
	}
	res, err := gate.RunCase(context.Background(), GateCase{
		Suite:     "p2_pause",
		Name:      "strict_trace",
		URL:       "http://127.0.0.1:1/data/doc.bin",
		Pattern:   PatternArrivalOrder,
		Source:    h,
		Baseline:  tmpl,
		Candidate: tmpl,
	})
	if err != nil {
		t.Fatalf("RunCase: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected clean comparison, diffs: %v", res.Diffs)
	}

	a, err := repo.Load(context.Background(), "p2_pause", "strict_trace", domain.RunnerBaseline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.PauseStrict == nil || a.PauseStrict.Schema != "pause_resume_events/1" {
		t.Fatalf("pause_resume_strict not loaded: %+v", a.PauseStrict)
	}
	if a.CookieJar == nil || a.CookieJar.Records != 1 {
		t.Fatalf("cookiejar not loaded: %+v", a.CookieJar)
	}
	if a.Progress == nil || a.Progress.Download == nil || a.Progress.Download.NowMax != 4 {
		t.Fatalf("progress not loaded: %+v", a.Progress)
	}
	if a.Error != nil {
		t.Fatalf("absent error file must leave section empty: %+v", a.Error)
	}
	if a.Response == nil || a.Response.BodyLen != 4 {
		t.Fatalf("download body identity: %+v", a.Response)
	}
}

func TestRunCaseDetectsErrorKindDivergence(t *testing.T) {
	dir := t.TempDir()
	errPath := filepath.Join(dir, "error.json")

	h := &gateHarness{
		obs: []domain.Observation{{Method: "GET", URL: "/status/503", Status: 503}},
	}
	h.sections = func(call int, id string) {
		kind := domain.ErrorKindHTTP
		if call == 2 {
			kind = domain.ErrorKindTimeout
		}
		writeJSON(t, errPath, domain.ErrorInfo{Kind: kind, HTTPStatus: 503})
	}

	tmpl := CommandTemplate{Argv: []string{"client", "{id}"}, ErrorPath: errPath}
	gate := NewGateService(h, newMemRepo(), nopLogger())
	res, err := gate.RunCase(context.Background(), GateCase{
		Suite:     "p3_errors",
		Name:      "kind_divergence",
		URL:       "http://127.0.0.1:1/status/503",
		Pattern:   PatternArrivalOrder,
		Source:    h,
		Baseline:  tmpl,
		Candidate: tmpl,
	})
	if err != nil {
		t.Fatalf("RunCase: %v", err)
	}
	if res.OK {
		t.Fatalf("expected error kind divergence")
	}
	found := false
	for _, d := range res.Diffs {
		if strings.HasPrefix(d, "error.kind mismatch") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing error.kind diff in %v", res.Diffs)
	}
}

func TestRunCaseMalformedSectionIsFatal(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.json")
	h := &gateHarness{
		obs: []domain.Observation{{Method: "GET", URL: "/x", Status: 200}},
	}
	h.sections = func(call int, id string) {
		if err := os.WriteFile(eventsPath, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("write section: %v", err)
		}
	}
	tmpl := CommandTemplate{Argv: []string{"client", "{id}"}, EventsPath: eventsPath}
	gate := NewGateService(h, newMemRepo(), nopLogger())
	_, err := gate.RunCase(context.Background(), GateCase{
		Suite:     "p2_pause",
		Name:      "broken_trace",
		URL:       "http://127.0.0.1:1/x",
		Pattern:   PatternArrivalOrder,
		Source:    h,
		Baseline:  tmpl,
		Candidate: tmpl,
	})
	if !errors.Is(err, domain.ErrMalformedArtifact) {
		t.Fatalf("want ErrMalformedArtifact, got %v", err)
	}
}

func TestRunCaseSelectRange(t *testing.T) {
	h := &gateHarness{
		obs: []domain.Observation{
			{Method: "GET", URL: "/data/doc.bin", Status: 200},
			{Method: "GET", URL: "/data/doc.bin", Status: 206, RequestHeaders: map[string]string{"range": "bytes=2-"}},
		},
	}
	repo := newMemRepo()
	gate := NewGateService(h, repo, nopLogger())
	tmpl := CommandTemplate{Argv: []string{"client", "{id}"}}
	res, err := gate.RunCase(context.Background(), GateCase{
		Suite:       "p2_resume",
		Name:        "range_restart",
		URL:         "http://127.0.0.1:1/data/doc.bin",
		Pattern:     PatternArrivalOrder,
		SelectRange: true,
		Source:      h,
		Baseline:    tmpl,
		Candidate:   tmpl,
	})
	if err != nil {
		t.Fatalf("RunCase: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected clean comparison, diffs: %v", res.Diffs)
	}
	a, err := repo.Load(context.Background(), "p2_resume", "range_restart", domain.RunnerBaseline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Request == nil || a.Request.Headers["range"] != "bytes=2-" {
		t.Fatalf("artifact should narrow to the range request: %+v", a.Request)
	}
	if a.Response == nil || a.Response.Status != 206 {
		t.Fatalf("artifact response should be the partial response: %+v", a.Response)
	}
}
