// Package accesslog parses pipe-delimited server access logs into
// observations. Two fixed field layouts exist; they are selected by name,
// never sniffed.
package accesslog

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"httparity/internal/domain"
	"httparity/pkg/shared/correlate"
)

// Format names one of the supported delimited layouts.
type Format string

const (
	// FormatOrigin: timestamp|protocol|method|url|status|range|content_length
	FormatOrigin Format = "access_log"
	// FormatALPN: timestamp|alpn|method|path|status|range|content_length
	// (written by the HTTP/3-terminating proxy).
	FormatALPN Format = "access_log_alpn"
)

const fieldCount = 7

// ParseLine parses one log line. ok is false for malformed lines (wrong
// field count or a non-numeric status); callers skip those without aborting
// the file. Status 0 stays valid: it marks a request whose response headers
// were never sent.
func ParseLine(format Format, line string) (domain.Observation, bool) {
	parts := strings.Split(line, "|")
	if len(parts) != fieldCount {
		return domain.Observation{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	status, err := strconv.Atoi(parts[4])
	if err != nil {
		return domain.Observation{}, false
	}

	var proto domain.Protocol
	switch format {
	case FormatALPN:
		proto = normalizeALPN(parts[1])
	default:
		proto = normalizeHTTPProto(parts[1])
	}

	obs := domain.Observation{
		Timestamp:      parts[0],
		CorrelationID:  correlate.Extract(parts[3]),
		Method:         strings.ToUpper(parts[2]),
		URL:            correlate.Strip(parts[3]),
		Protocol:       proto,
		Status:         status,
		RequestHeaders: map[string]string{},
	}
	if v := parts[5]; v != "" && v != "-" {
		obs.RequestHeaders["range"] = v
	}
	if v := parts[6]; v != "" && v != "-" {
		obs.RequestHeaders["content-length"] = v
	}
	return obs, true
}

// Parse reads a whole log, skipping blank and malformed lines. File order
// is preserved.
func Parse(format Format, r io.Reader) ([]domain.Observation, error) {
	var out []domain.Observation
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if obs, ok := ParseLine(format, line); ok {
			out = append(out, obs)
		}
	}
	return out, sc.Err()
}

func normalizeHTTPProto(s string) domain.Protocol {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "HTTP/3"):
		return domain.ProtocolH3
	case strings.HasPrefix(s, "HTTP/2"):
		return domain.ProtocolH2
	default:
		return domain.ProtocolHTTP1
	}
}

func normalizeALPN(s string) domain.Protocol {
	switch strings.TrimSpace(s) {
	case "h3":
		return domain.ProtocolH3
	case "h2":
		return domain.ProtocolH2
	default:
		return domain.ProtocolHTTP1
	}
}
