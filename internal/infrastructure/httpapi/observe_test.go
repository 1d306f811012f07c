package httpapi

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"httparity/internal/adapters/decoders/jsonlog"
	"httparity/internal/domain"
	"httparity/internal/infrastructure/config"
	obs "httparity/internal/infrastructure/observability"
)

func newTestDeps(t *testing.T) (*Deps, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "observe.jsonl")
	lw, err := OpenLogWriter(logPath)
	if err != nil {
		t.Fatalf("open log writer: %v", err)
	}
	t.Cleanup(func() { _ = lw.Close() })
	proxyLW, err := OpenLogWriter(filepath.Join(dir, "proxy.jsonl"))
	if err != nil {
		t.Fatalf("open proxy log writer: %v", err)
	}
	t.Cleanup(func() { _ = proxyLW.Close() })
	wsLW, err := OpenLogWriter(filepath.Join(dir, "ws.jsonl"))
	if err != nil {
		t.Fatalf("open ws log writer: %v", err)
	}
	t.Cleanup(func() { _ = wsLW.Close() })
	logger := obs.NewLogger("error")
	d := &Deps{
		Cfg:        config.Config{ProxyUsername: "u", ProxyPassword: "p", DialTimeoutMs: 1000, RelayIdleMs: 1000, DocsDir: dir},
		Logger:     logger,
		Metrics:    obs.NewMetrics(),
		ObserveLog: lw,
		ProxyLog:   proxyLW,
		WSLog:      wsLW,
	}
	return d, logPath
}

func readObservations(t *testing.T, path string) []domain.Observation {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	got, err := jsonlog.Parse(jsonlog.KindObserve, f)
	if err != nil {
		t.Fatalf("parse log: %v", err)
	}
	return got
}

func TestRedirectChainLogsEveryHop(t *testing.T) {
	d, logPath := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/redir/2?id=case_a1b2c3d4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "redirect-done" {
		t.Fatalf("final hop: %d %q", resp.StatusCode, body)
	}

	got := readObservations(t, logPath)
	if len(got) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(got))
	}
	wantURLs := []string{"/redir/2", "/redir/1", "/redir/0"}
	wantStatus := []int{302, 302, 200}
	for i, o := range got {
		if o.CorrelationID != "case_a1b2c3d4" {
			t.Fatalf("obs %d: correlation id %q", i, o.CorrelationID)
		}
		if o.URL != wantURLs[i] {
			t.Fatalf("obs %d: url %q, want %q", i, o.URL, wantURLs[i])
		}
		if o.Status != wantStatus[i] {
			t.Fatalf("obs %d: status %d, want %d", i, o.Status, wantStatus[i])
		}
	}
}

func TestLoginFlow(t *testing.T) {
	d, logPath := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	jar := newCookieClient(t)
	resp, err := jar.Get(srv.URL + "/login?id=case_deadbeef")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("home after login: %d", resp.StatusCode)
	}

	got := readObservations(t, logPath)
	if len(got) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(got))
	}
	if got[0].URL != "/login" || got[0].Status != 302 {
		t.Fatalf("login obs: %+v", got[0])
	}
	if got[1].URL != "/home" || got[1].Status != 200 {
		t.Fatalf("home obs: %+v", got[1])
	}
	if got[1].RequestHeaders["cookie"] != "sid=lc123" {
		t.Fatalf("home cookie header: %v", got[1].RequestHeaders)
	}
}

// Logged redirect responses keep their Location header, with the per-run
// correlation token stripped so both runners record the same value. The
// host request header is logged even though net/http moves it off the map.
func TestRedirectLogsStrippedLocationAndHost(t *testing.T) {
	d, logPath := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/redir/1?id=case_0badc0de")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	got := readObservations(t, logPath)
	if len(got) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(got))
	}
	if loc := got[0].ResponseHeaders["location"]; loc != "/redir/0" {
		t.Fatalf("logged location: %q, want %q", loc, "/redir/0")
	}
	if host := got[0].RequestHeaders["host"]; host == "" {
		t.Fatalf("host header not logged: %v", got[0].RequestHeaders)
	}
}

func TestHomeWithoutCookieIsUnauthorized(t *testing.T) {
	d, _ := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/home")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestStatusAndEmptyEndpoints(t *testing.T) {
	d, logPath := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/status/418", 418},
		{"/empty_200", 200},
		{"/no_content", 204},
	} {
		resp, err := http.Get(srv.URL + tc.path + "?id=case_00000000")
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: status %d, want %d", tc.path, resp.StatusCode, tc.status)
		}
	}

	got := readObservations(t, logPath)
	if len(got) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(got))
	}
	for i, want := range []int{418, 200, 204} {
		if got[i].Status != want {
			t.Fatalf("obs %d: status %d, want %d", i, got[i].Status, want)
		}
	}
}

func TestMultipartSemanticSummary(t *testing.T) {
	d, _ := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "hello"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("upload", "doc.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(fill(256)); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	mw.Close()

	resp, err := http.Post(srv.URL+"/multipart?id=case_12345678", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var got multipartSummary
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got.Kind != "multipart/form-data" || len(got.Parts) != 2 {
		t.Fatalf("summary: %+v", got)
	}
	if got.Parts[0].Name != "note" || got.Parts[0].Size != 5 || got.Parts[0].SHA256 != domain.SHA256Hex([]byte("hello")) {
		t.Fatalf("field part: %+v", got.Parts[0])
	}
	if got.Parts[1].Name != "upload" || got.Parts[1].Filename != "doc.bin" || got.Parts[1].Size != 256 {
		t.Fatalf("file part: %+v", got.Parts[1])
	}
	if got.Parts[1].SHA256 != domain.SHA256Hex(fill(256)) {
		t.Fatalf("file digest: %q", got.Parts[1].SHA256)
	}
}

func TestMultipartRejectsUnparseableBody(t *testing.T) {
	d, _ := newTestDeps(t)
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	for _, tc := range []struct {
		name        string
		contentType string
		body        string
	}{
		{"wrong content type", "text/plain", "not multipart"},
		{"empty body", "multipart/form-data; boundary=b", ""},
		{"truncated body", "multipart/form-data; boundary=b", "--b\r\nContent-Disposition: form-data; name=\"x\"\r\n"},
	} {
		resp, err := http.Post(srv.URL+"/multipart", tc.contentType, strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("%s: post: %v", tc.name, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", tc.name, resp.StatusCode)
		}
	}
}

func TestRangeRequestLogged(t *testing.T) {
	d, logPath := newTestDeps(t)
	if err := os.WriteFile(filepath.Join(d.Cfg.DocsDir, "doc.bin"), fill(1024), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	srv := httptest.NewServer(NewObserveRouter(d))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/data/doc.bin?id=case_ffffffff", nil)
	req.Header.Set("Range", "bytes=0-99")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent || len(body) != 100 {
		t.Fatalf("range response: %d, %d bytes", resp.StatusCode, len(body))
	}

	got := readObservations(t, logPath)
	if len(got) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(got))
	}
	if !got[0].HasRange() {
		t.Fatalf("observation should carry range: %+v", got[0])
	}
	if got[0].RequestHeaders["range"] != "bytes=0-99" {
		t.Fatalf("range header: %v", got[0].RequestHeaders)
	}
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}
