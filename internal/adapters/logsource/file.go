// Package logsource binds a collaborator log file to one of the named
// parsers. The format set is closed and selected by configuration; nothing
// is sniffed at runtime.
package logsource

import (
	"fmt"
	"os"

	"httparity/internal/adapters/decoders/accesslog"
	"httparity/internal/adapters/decoders/jsonlog"
	"httparity/internal/domain"
)

// Format names one of the supported collaborator log layouts.
type Format string

const (
	FormatAccessLog     Format = "access_log"
	FormatAccessLogALPN Format = "access_log_alpn"
	FormatObserveJSONL  Format = "observe_jsonl"
	FormatProxyJSONL    Format = "proxy_jsonl"
	FormatWSJSONL       Format = "ws_handshake_jsonl"
)

// File reads one append-only collaborator log. The caller owns the path
// lifecycle and must only read after the producing phase has completed.
type File struct {
	Path   string
	Format Format
}

func (f File) Observations() ([]domain.Observation, error) {
	fp, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open log source: %w", err)
	}
	defer fp.Close()

	switch f.Format {
	case FormatAccessLog:
		return accesslog.Parse(accesslog.FormatOrigin, fp)
	case FormatAccessLogALPN:
		return accesslog.Parse(accesslog.FormatALPN, fp)
	case FormatObserveJSONL:
		return jsonlog.Parse(jsonlog.KindObserve, fp)
	case FormatProxyJSONL:
		return jsonlog.Parse(jsonlog.KindProxy, fp)
	case FormatWSJSONL:
		return jsonlog.Parse(jsonlog.KindWSHandshake, fp)
	default:
		return nil, fmt.Errorf("unknown log format %q", f.Format)
	}
}
