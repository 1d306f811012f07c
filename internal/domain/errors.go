package domain

import "errors"

// Extraction and artifact-document failures abort a test case: they mean the
// environment or instrumentation is broken, not that behavior differs.
// Comparison mismatches and contract violations are never errors; they are
// collected exhaustively as diff lists.
var (
	// ErrNotFound: no log entries matched a correlation id.
	ErrNotFound = errors.New("no observations for correlation id")
	// ErrCountMismatch: the number of matching observations differs from
	// the caller's expectation; a request was lost or duplicated.
	ErrCountMismatch = errors.New("observation count mismatch")
	// ErrMalformedArtifact: an artifact document is unreadable or invalid.
	ErrMalformedArtifact = errors.New("malformed artifact document")
)

// ErrorKind classifies a client-side failure for conformance comparison.
type ErrorKind string

const (
	ErrorKindNone    ErrorKind = "none"
	ErrorKindHTTP    ErrorKind = "http"
	ErrorKindTimeout ErrorKind = "timeout"
	ErrorKindTLS     ErrorKind = "tls"
	ErrorKindConnect ErrorKind = "connect"
	ErrorKindURL     ErrorKind = "url"
	ErrorKindCancel  ErrorKind = "cancel"
)
