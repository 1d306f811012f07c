package usecase

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"httparity/internal/domain"
)

func sampleArtifact(runner domain.Runner) domain.Artifact {
	req := domain.NewRequestSemantic("GET", "/data-1m", map[string]string{"Host": "localhost"}, nil)
	resp := domain.NewResponseSummary(200, domain.ProtocolH2, nil, nil)
	resp.BodyLen = 1048576
	resp.BodySHA256 = "abc"
	return domain.Artifact{Runner: runner, Request: &req, Response: &resp}
}

func TestCompareIdenticalArtifacts(t *testing.T) {
	a := sampleArtifact(domain.RunnerBaseline)
	b := sampleArtifact(domain.RunnerCandidate)
	ok, diffs := CompareArtifacts(a, b)
	if !ok || len(diffs) != 0 {
		t.Fatalf("expected clean compare, got %v", diffs)
	}
}

func TestCompareSelfAlwaysClean(t *testing.T) {
	a := sampleArtifact(domain.RunnerBaseline)
	a.CookieJar = &domain.CookieJar{Records: 2, SHA256: "x"}
	a.ConnObs = &domain.ConnectionObserved{RequestCount: 3, UniqueConnections: 1, ConnSeq: []int{1, 1, 1}}
	ok, diffs := CompareArtifacts(a, a)
	if !ok || len(diffs) != 0 {
		t.Fatalf("self-compare must be clean: %v", diffs)
	}
}

func TestCompareSingleBodyLenDiff(t *testing.T) {
	base := sampleArtifact(domain.RunnerBaseline)
	cand := sampleArtifact(domain.RunnerCandidate)
	cand.Response.BodyLen = 1048575

	ok, diffs := CompareArtifacts(base, cand)
	if ok {
		t.Fatalf("expected mismatch")
	}
	want := []string{"response.body_len mismatch: 1048576 != 1048575"}
	if d := cmp.Diff(want, diffs); d != "" {
		t.Fatalf("diff list mismatch (-want +got):\n%s", d)
	}
}

func TestComparePresenceMismatchIsDiff(t *testing.T) {
	base := sampleArtifact(domain.RunnerBaseline)
	cand := sampleArtifact(domain.RunnerCandidate)
	base.CookieJar = &domain.CookieJar{Records: 1, SHA256: "x"}

	ok, diffs := CompareArtifacts(base, cand)
	if ok || len(diffs) != 1 || diffs[0] != "cookiejar missing in one side" {
		t.Fatalf("unexpected: ok=%v diffs=%v", ok, diffs)
	}
}

func TestCompareRequestChains(t *testing.T) {
	mk := func(urls ...string) domain.Artifact {
		a := domain.Artifact{Runner: domain.RunnerBaseline}
		for i, u := range urls {
			a.Requests = append(a.Requests, domain.NewRequestSemantic("GET", u, nil, nil))
			status := 302
			if i == len(urls)-1 {
				status = 200
			}
			a.Responses = append(a.Responses, domain.NewResponseSummary(status, domain.ProtocolHTTP1, nil, nil))
		}
		final := a.Responses[len(a.Responses)-1]
		a.Response = &final
		return a
	}
	base := mk("/redir/2", "/redir/1", "/redir/0")
	cand := mk("/redir/2", "/redir/1", "/redir/0")
	if ok, diffs := CompareArtifacts(base, cand); !ok {
		t.Fatalf("equal chains must match: %v", diffs)
	}

	cand = mk("/redir/2", "/redir/0", "/redir/1")
	ok, diffs := CompareArtifacts(base, cand)
	if ok {
		t.Fatalf("reordered chain must mismatch")
	}
	for _, d := range diffs {
		if !strings.Contains(d, "requests[") {
			t.Fatalf("diff must carry element index: %q", d)
		}
	}

	short := mk("/redir/1", "/redir/0")
	ok, diffs = CompareArtifacts(base, short)
	if ok || diffs[0] != "requests length mismatch: 3 != 2" {
		t.Fatalf("unexpected: %v", diffs)
	}
}

func TestCompareRawHeaderFidelityPresenceMustAgree(t *testing.T) {
	base := sampleArtifact(domain.RunnerBaseline)
	cand := sampleArtifact(domain.RunnerCandidate)
	n := int64(120)
	base.Response.HeadersRawLen = &n
	base.Response.HeadersRawSHA256 = "ff"

	ok, diffs := CompareArtifacts(base, cand)
	if ok {
		t.Fatalf("expected mismatch")
	}
	joined := strings.Join(diffs, "\n")
	if !strings.Contains(joined, "headers_raw_len missing in one side") ||
		!strings.Contains(joined, "headers_raw_sha256 missing in one side") {
		t.Fatalf("unexpected diffs: %v", diffs)
	}
}

func TestCompareErrorOptionalCodes(t *testing.T) {
	code7 := 7
	zero := 0
	base := domain.Artifact{
		Runner: domain.RunnerBaseline,
		Error:  &domain.ErrorInfo{Kind: domain.ErrorKindConnect, HTTPStatus: 0, CurlCode: &code7, HTTPCode: &zero},
	}
	cand := base
	cand.Runner = domain.RunnerCandidate
	if ok, diffs := CompareArtifacts(base, cand); !ok {
		t.Fatalf("equal errors must match: %v", diffs)
	}

	other := 28
	cand.Error = &domain.ErrorInfo{Kind: domain.ErrorKindConnect, HTTPStatus: 0, CurlCode: &other, HTTPCode: &zero}
	ok, diffs := CompareArtifacts(base, cand)
	if ok || diffs[0] != "error.curlcode mismatch: 7 != 28" {
		t.Fatalf("unexpected: %v", diffs)
	}
}
