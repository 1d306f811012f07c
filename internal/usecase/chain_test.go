package usecase

import (
	"testing"

	"httparity/internal/domain"
)

func obsURL(url string) domain.Observation {
	return domain.Observation{Method: "GET", URL: url, Status: 200}
}

func TestResolveRedirectChain(t *testing.T) {
	in := []domain.Observation{obsURL("/redir/3"), obsURL("/redir/1"), obsURL("/redir/0"), obsURL("/redir/2")}
	out := ResolveChain(PatternRedirectChain, in)
	want := []string{"/redir/3", "/redir/2", "/redir/1", "/redir/0"}
	for i, w := range want {
		if out[i].URL != w {
			t.Fatalf("index %d: got %q want %q", i, out[i].URL, w)
		}
	}
	// input order untouched
	if in[1].URL != "/redir/1" {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestResolveLoginFlow(t *testing.T) {
	out := ResolveChain(PatternLoginFlow, []domain.Observation{obsURL("/home"), obsURL("/login")})
	if out[0].URL != "/login" || out[1].URL != "/home" {
		t.Fatalf("unexpected order: %q, %q", out[0].URL, out[1].URL)
	}
}

func TestResolveParallelFetchLexicographic(t *testing.T) {
	out := ResolveChain(PatternParallelFetch, []domain.Observation{
		obsURL("/path/24020003"), obsURL("/path/24020001"), obsURL("/path/24020002"),
	})
	if out[0].URL != "/path/24020001" || out[2].URL != "/path/24020003" {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestResolveUnknownPatternKeepsArrivalOrder(t *testing.T) {
	in := []domain.Observation{obsURL("/b"), obsURL("/a")}
	out := ResolveChain(PatternArrivalOrder, in)
	if out[0].URL != "/b" || out[1].URL != "/a" {
		t.Fatalf("arrival order must be preserved: %+v", out)
	}
}
