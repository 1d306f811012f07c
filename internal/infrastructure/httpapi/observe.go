package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"httparity/internal/domain"
	"httparity/pkg/shared/correlate"
)

// observeRecorder captures the status code so the request can be logged
// after the handler returns. Handlers that must log before responding
// (delayed headers) mark the entry as already written.
type observeRecorder struct {
	http.ResponseWriter
	status int
	logged bool
}

func (rec *observeRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *observeRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

func (rec *observeRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// observed wraps a handler with the one-line-per-request JSONL log and the
// request counter. Exactly one line is written per request.
func (d *Deps) observed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &observeRecorder{ResponseWriter: w}
		h(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		if !rec.logged {
			d.logObserve(rec, r, rec.status)
		}
		d.Metrics.RequestsObserved.WithLabelValues(routeLabel(r.URL.Path), r.Proto).Inc()
	}
}

func (d *Deps) logObserve(rec *observeRecorder, r *http.Request, status int) {
	rec.logged = true
	reqHeaders := pickHeaders(r.Header, requestHeaderAllow)
	if r.Host != "" {
		// net/http promotes Host out of the header map
		if reqHeaders == nil {
			reqHeaders = map[string]string{}
		}
		reqHeaders["host"] = r.Host
	}
	respHeaders := pickHeaders(rec.Header(), responseHeaderAllow)
	if loc, ok := respHeaders["location"]; ok {
		// redirect targets embed the per-run correlation token
		respHeaders["location"] = correlate.Strip(loc)
	}
	e := observeEntry{
		TS:              time.Now().UTC().Format(time.RFC3339Nano),
		ID:              r.URL.Query().Get("id"),
		Peer:            clientHost(r.RemoteAddr),
		PeerPort:        peerPort(r.RemoteAddr),
		Method:          r.Method,
		Path:            r.URL.RequestURI(),
		Proto:           r.Proto,
		Status:          status,
		Headers:         reqHeaders,
		ResponseHeaders: respHeaders,
	}
	if err := d.ObserveLog.Append(e); err != nil {
		d.Logger.Error().Err(err).Msg("observe log append failed")
	}
}

// routeLabel collapses parameterized paths to keep metric cardinality low.
func routeLabel(p string) string {
	parts := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "/"
	}
	return "/" + parts[0]
}

// pathArgs returns the segments after the route prefix, e.g.
// pathArgs("/redir/3", "/redir/") -> ["3"].
func pathArgs(p, prefix string) []string {
	rest := strings.TrimPrefix(p, prefix)
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func (d *Deps) handleRedir(w http.ResponseWriter, r *http.Request) {
	args := pathArgs(r.URL.Path, "/redir/")
	if len(args) != 1 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad redirect depth", nil)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad redirect depth", nil)
		return
	}
	if n == 0 {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("redirect-done"))
		return
	}
	next := fmt.Sprintf("/redir/%d", n-1)
	if q := r.URL.RawQuery; q != "" {
		next += "?" + q
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (d *Deps) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "sid", Value: "lc123", Path: "/"})
	next := "/home"
	if q := r.URL.RawQuery; q != "" {
		next += "?" + q
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (d *Deps) handleHome(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("sid")
	if err != nil || c.Value != "lc123" {
		w.Header().Set("WWW-Authenticate", `Session realm="httparity"`)
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "missing session cookie", nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("welcome"))
}

func (d *Deps) handleCookie(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(r.Header.Get("Cookie")))
}

func (d *Deps) handleStatus(w http.ResponseWriter, r *http.Request) {
	args := pathArgs(r.URL.Path, "/status/")
	if len(args) != 1 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad status code", nil)
		return
	}
	code, err := strconv.Atoi(args[0])
	if err != nil || code < 100 || code > 599 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad status code", nil)
		return
	}
	w.WriteHeader(code)
	if code != http.StatusNoContent && code != http.StatusNotModified {
		_, _ = fmt.Fprintf(w, "status-%d", code)
	}
}

func (d *Deps) handleEmpty200(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

func (d *Deps) handleNoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleDelayHeaders logs the request with status 0 before sleeping so a
// client that times out waiting for headers still leaves a record.
func (d *Deps) handleDelayHeaders(w http.ResponseWriter, r *http.Request) {
	args := pathArgs(r.URL.Path, "/delay_headers/")
	if len(args) != 1 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad delay", nil)
		return
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad delay", nil)
		return
	}
	if rec, ok := w.(*observeRecorder); ok {
		d.logObserve(rec, r, 0)
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-r.Context().Done():
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("delayed"))
}

// handleStallBody sends headers and half the body, stalls, then finishes.
func (d *Deps) handleStallBody(w http.ResponseWriter, r *http.Request) {
	args := pathArgs(r.URL.Path, "/stall_body/")
	if len(args) != 2 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad stall args", nil)
		return
	}
	total, err1 := strconv.Atoi(args[0])
	ms, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || total <= 0 || ms < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad stall args", nil)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(total))
	half := total / 2
	_, _ = w.Write(fill(half))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-r.Context().Done():
		return
	}
	_, _ = w.Write(fill(total - half))
}

// handleSlowBody trickles the body out in fixed chunks.
func (d *Deps) handleSlowBody(w http.ResponseWriter, r *http.Request) {
	args := pathArgs(r.URL.Path, "/slow_body/")
	if len(args) != 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad slow args", nil)
		return
	}
	total, err1 := strconv.Atoi(args[0])
	chunk, err2 := strconv.Atoi(args[1])
	ms, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil || total <= 0 || chunk <= 0 || ms < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad slow args", nil)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(total))
	sent := 0
	for sent < total {
		n := chunk
		if total-sent < n {
			n = total - sent
		}
		_, _ = w.Write(fill(n))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		sent += n
		if sent >= total {
			break
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-r.Context().Done():
			return
		}
	}
}

// handleRespHeaders responds with duplicate and case-varied headers for
// raw-header capture cases.
func (d *Deps) handleRespHeaders(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Add("X-Dup", "one")
	h.Add("X-Dup", "two")
	h["X-MiXeD-CaSe"] = append(h["X-MiXeD-CaSe"], "Value")
	h.Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("headers"))
}

func (d *Deps) handleHead(w http.ResponseWriter, r *http.Request) {
	body := []byte("head-body")
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(body)
}

func (d *Deps) handleMethod(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "method=%s", r.Method)
}

type multipartPart struct {
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	SHA256      string `json:"sha256"`
}

type multipartSummary struct {
	Kind  string          `json:"kind"`
	Parts []multipartPart `json:"parts"`
}

// handleMultipart parses a multipart/form-data body and answers with a
// semantic summary of the parts in received order. Raw body bytes are not
// comparable across clients (the boundary differs per request), the digest
// summary is.
func (d *Deps) handleMultipart(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_MULTIPART", err.Error(), nil)
		return
	}
	summary := multipartSummary{Kind: "multipart/form-data", Parts: []multipartPart{}}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_MULTIPART", err.Error(), nil)
			return
		}
		data, err := io.ReadAll(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_MULTIPART", err.Error(), nil)
			return
		}
		summary.Parts = append(summary.Parts, multipartPart{
			Name:        p.FormName(),
			Filename:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
			Size:        len(data),
			SHA256:      domain.SHA256Hex(data),
		})
	}
	if len(summary.Parts) == 0 {
		writeError(w, http.StatusBadRequest, "BAD_MULTIPART", "empty multipart body", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

// handleData serves static documents; net/http handles Range requests.
func (d *Deps) handleData(w http.ResponseWriter, r *http.Request) {
	if d.Cfg.DocsDir == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no docs dir configured", nil)
		return
	}
	name := path.Base(strings.TrimPrefix(r.URL.Path, "/data/"))
	if name == "." || name == "/" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "bad document name", nil)
		return
	}
	http.ServeFile(w, r, filepath.Join(d.Cfg.DocsDir, name))
}

func fill(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return b
}
