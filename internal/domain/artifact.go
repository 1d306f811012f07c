package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Runner identifies which implementation produced an artifact.
type Runner string

const (
	RunnerBaseline  Runner = "baseline"
	RunnerCandidate Runner = "candidate"
)

// RequestSemantic is the comparable summary of one issued request.
type RequestSemantic struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
	BodyLen    int64             `json:"body_len"`
	BodySHA256 string            `json:"body_sha256"`
}

// ResponseSummary is the comparable summary of one received response.
// The raw-header fields are populated only when byte-level header
// ordering/duplication is under test.
type ResponseSummary struct {
	Status           int               `json:"status"`
	HTTPVersion      Protocol          `json:"http_version"`
	Headers          map[string]string `json:"headers"`
	BodyLen          int64             `json:"body_len"`
	BodySHA256       string            `json:"body_sha256"`
	HeadersRawLines  []string          `json:"headers_raw_lines,omitempty"`
	HeadersRawLen    *int64            `json:"headers_raw_len,omitempty"`
	HeadersRawSHA256 string            `json:"headers_raw_sha256,omitempty"`
}

// ErrorInfo is the normalized error classification of a failed run.
type ErrorInfo struct {
	Kind       ErrorKind `json:"kind"`
	HTTPStatus int       `json:"http_status"`
	CurlCode   *int      `json:"curlcode,omitempty"`
	HTTPCode   *int      `json:"http_code,omitempty"`
}

// CookieJar summarizes a persisted cookie jar.
type CookieJar struct {
	Records int    `json:"records"`
	SHA256  string `json:"sha256"`
}

// ProgressLane is one direction of a progress-callback summary.
type ProgressLane struct {
	Monotonic bool  `json:"monotonic"`
	NowMax    int64 `json:"now_max"`
	TotalMax  int64 `json:"total_max"`
}

// ProgressSummary captures download/upload progress instrumentation.
type ProgressSummary struct {
	Download *ProgressLane `json:"download,omitempty"`
	Upload   *ProgressLane `json:"upload,omitempty"`
}

// ConnectionObserved summarizes connection reuse as seen by the server.
// ConnSeq maps peer ports to small connection ids in first-seen order.
type ConnectionObserved struct {
	RequestCount      int   `json:"request_count"`
	UniqueConnections int   `json:"unique_connections"`
	ConnSeq           []int `json:"conn_seq"`
}

// Artifact is the canonical comparison document for one implementation's
// run of one test case. Built once, persisted, then read by the comparator;
// never mutated afterwards.
type Artifact struct {
	Runner      Runner              `json:"runner"`
	Request     *RequestSemantic    `json:"request,omitempty"`
	Requests    []RequestSemantic   `json:"requests,omitempty"`
	Response    *ResponseSummary    `json:"response,omitempty"`
	Responses   []ResponseSummary   `json:"responses,omitempty"`
	Error       *ErrorInfo          `json:"error,omitempty"`
	CookieJar   *CookieJar          `json:"cookiejar,omitempty"`
	Progress    *ProgressSummary    `json:"progress_summary,omitempty"`
	ConnObs     *ConnectionObserved `json:"connection_observed,omitempty"`
	Pause       *PauseResume        `json:"pause_resume,omitempty"`
	PauseStrict *PauseResumeStrict  `json:"pause_resume_strict,omitempty"`

	// Process result of the run, kept for debugging. Not compared.
	ExitCode   int      `json:"exit_code,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	Stdout     []string `json:"stdout,omitempty"`
	Stderr     []string `json:"stderr,omitempty"`
}

// SHA256Hex returns the hex digest of data, or "" for an empty body so that
// artifacts distinguish "no body" without inventing a hash.
func SHA256Hex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeHeaders lower-cases keys and trims values. Values are kept whole;
// merge/order policy is the caller's responsibility.
func NormalizeHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

// NewRequestSemantic builds the request-side comparison unit.
func NewRequestSemantic(method, url string, headers map[string]string, body []byte) RequestSemantic {
	return RequestSemantic{
		Method:     strings.ToUpper(method),
		URL:        url,
		Headers:    NormalizeHeaders(headers),
		BodyLen:    int64(len(body)),
		BodySHA256: SHA256Hex(body),
	}
}

// NewResponseSummary builds the response-side comparison unit.
func NewResponseSummary(status int, version Protocol, headers map[string]string, body []byte) ResponseSummary {
	return ResponseSummary{
		Status:      status,
		HTTPVersion: version,
		Headers:     NormalizeHeaders(headers),
		BodyLen:     int64(len(body)),
		BodySHA256:  SHA256Hex(body),
	}
}

// ConnectionObservedFromPorts maps peer ports to connection ids in
// first-seen order: ports [5001,5002,5001] become conn_seq [1,2,1].
func ConnectionObservedFromPorts(ports []int) ConnectionObserved {
	mapping := make(map[int]int, len(ports))
	seq := make([]int, 0, len(ports))
	next := 1
	for _, p := range ports {
		id, ok := mapping[p]
		if !ok {
			id = next
			mapping[p] = id
			next++
		}
		seq = append(seq, id)
	}
	return ConnectionObserved{
		RequestCount:      len(ports),
		UniqueConnections: next - 1,
		ConnSeq:           seq,
	}
}
