// Package jsonlog parses JSON-Lines collaborator logs (observation server,
// forward proxy, websocket handshakes) into observations. Malformed lines
// are skipped.
package jsonlog

import (
	"bufio"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"httparity/internal/domain"
	"httparity/pkg/shared/correlate"
)

// entry is the union of the three JSONL shapes the collaborators write.
// The correlation id travels in a dedicated field, not the URL.
type entry struct {
	TS              string            `json:"ts"`
	ID              string            `json:"id"`
	Peer            string            `json:"peer"`
	PeerPort        int               `json:"peer_port"`
	Method          string            `json:"method"`
	Path            string            `json:"path"`
	Target          string            `json:"target"`
	Proto           string            `json:"proto"`
	Version         string            `json:"version"`
	Status          int               `json:"status"`
	Headers         map[string]string `json:"headers"`
	ResponseHeaders map[string]string `json:"response_headers"`
}

// Kind selects how an entry maps onto an observation.
type Kind string

const (
	KindObserve     Kind = "observe"      // observation HTTP/HTTPS server
	KindProxy       Kind = "proxy"        // forward proxy request log
	KindWSHandshake Kind = "ws_handshake" // websocket handshake log
)

// Parse reads a JSONL stream, skipping blank and undecodable lines.
func Parse(kind Kind, r io.Reader) ([]domain.Observation, error) {
	var out []domain.Observation
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		out = append(out, e.observation(kind))
	}
	return out, sc.Err()
}

func (e entry) observation(kind Kind) domain.Observation {
	obs := domain.Observation{
		Timestamp:       e.TS,
		CorrelationID:   e.ID,
		Method:          strings.ToUpper(e.Method),
		Status:          e.Status,
		PeerPort:        e.PeerPort,
		RequestHeaders:  lowerKeys(e.Headers),
		ResponseHeaders: lowerKeys(e.ResponseHeaders),
	}
	switch kind {
	case KindProxy:
		obs.URL = correlate.Strip(e.Target)
		obs.Protocol = protoFromVersion(e.Version)
	case KindWSHandshake:
		if obs.Method == "" {
			obs.Method = "GET"
		}
		obs.URL = correlate.Strip(e.Path)
		obs.Protocol = domain.ProtocolWS
	default:
		obs.URL = correlate.Strip(e.Path)
		obs.Protocol = protoFromVersion(e.Proto)
	}
	return obs
}

func lowerKeys(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func protoFromVersion(v string) domain.Protocol {
	switch {
	case strings.HasPrefix(v, "HTTP/3"), v == "h3":
		return domain.ProtocolH3
	case strings.HasPrefix(v, "HTTP/2"), v == "h2":
		return domain.ProtocolH2
	default:
		return domain.ProtocolHTTP1
	}
}
