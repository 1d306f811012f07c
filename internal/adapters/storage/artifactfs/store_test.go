package artifactfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"httparity/internal/domain"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	req := domain.NewRequestSemantic("GET", "/home", map[string]string{"Cookie": "sid=lc123"}, nil)
	resp := domain.NewResponseSummary(200, domain.ProtocolHTTP1, nil, []byte("welcome\n"))
	a := domain.Artifact{Runner: domain.RunnerBaseline, Request: &req, Response: &resp}

	path, err := store.Save(context.Background(), "p1_login", "login_cookie_flow", a)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "baseline.json" {
		t.Fatalf("unexpected path: %s", path)
	}

	got, err := store.Load(context.Background(), "p1_login", "login_cookie_flow", domain.RunnerBaseline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d := cmp.Diff(a, got); d != "" {
		t.Fatalf("round trip (-want +got):\n%s", d)
	}
}

func TestLoadMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Load(context.Background(), "s", "c", domain.RunnerCandidate)
	if !errors.Is(err, domain.ErrMalformedArtifact) {
		t.Fatalf("missing file: want ErrMalformedArtifact, got %v", err)
	}

	path := store.Path("s", "c", domain.RunnerCandidate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background(), "s", "c", domain.RunnerCandidate); !errors.Is(err, domain.ErrMalformedArtifact) {
		t.Fatalf("invalid json: want ErrMalformedArtifact, got %v", err)
	}
}
