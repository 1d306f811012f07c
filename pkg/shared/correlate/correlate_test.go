package correlate

import (
	"strings"
	"testing"
)

func TestAppendFirstAndSecondParam(t *testing.T) {
	if got := Append("http://localhost:8080/redir/3", "abc"); got != "http://localhost:8080/redir/3?id=abc" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := Append("http://localhost:8080/d?x=1", "abc"); got != "http://localhost:8080/d?x=1&id=abc" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestExtract(t *testing.T) {
	if got := Extract("/login?next=%2Fhome&id=tok42"); got != "tok42" {
		t.Fatalf("extract: %q", got)
	}
	if got := Extract("/login"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestStripRemovesOnlyCorrelation(t *testing.T) {
	got := Strip("/path/2402?id=tok&keep=1")
	if strings.Contains(got, "id=") {
		t.Fatalf("id survived: %q", got)
	}
	if !strings.Contains(got, "keep=1") {
		t.Fatalf("other params must survive: %q", got)
	}
}

func TestStripIdempotent(t *testing.T) {
	urls := []string{
		"/redir/3?id=abc",
		"/d?x=1&id=abc&y=2",
		"http://h:1/p?id=abc",
		"/plain",
	}
	for _, u := range urls {
		once := Strip(u)
		if twice := Strip(once); twice != once {
			t.Fatalf("strip not idempotent for %q: %q != %q", u, twice, once)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	a := NewID("lc")
	b := NewID("lc")
	if a == b {
		t.Fatalf("ids must differ: %q", a)
	}
	if !strings.HasPrefix(a, "lc_") {
		t.Fatalf("prefix missing: %q", a)
	}
}
