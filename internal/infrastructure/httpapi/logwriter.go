package httpapi

import (
	"os"
	"sync"

	json "github.com/goccy/go-json"
)

// LogWriter appends one JSON document per line to a file. Collaborator
// servers own exactly one writer per log; readers open the path separately.
type LogWriter struct {
	mu   sync.Mutex
	file *os.File
}

func OpenLogWriter(path string) (*LogWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &LogWriter{file: f}, nil
}

func (w *LogWriter) Append(entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// observeEntry is one request seen by the observation server.
type observeEntry struct {
	TS              string            `json:"ts"`
	ID              string            `json:"id"`
	Peer            string            `json:"peer"`
	PeerPort        int               `json:"peer_port"`
	Method          string            `json:"method"`
	Path            string            `json:"path"`
	Proto           string            `json:"proto"`
	Status          int               `json:"status"`
	Headers         map[string]string `json:"headers,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
}

// proxyEntry is one request seen by the forward proxy.
type proxyEntry struct {
	TS      string            `json:"ts"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Target  string            `json:"target"`
	Version string            `json:"version"`
	AuthOK  bool              `json:"auth_ok"`
	Headers map[string]string `json:"headers,omitempty"`
}

// wsEntry is one websocket handshake.
type wsEntry struct {
	TS      string            `json:"ts"`
	ID      string            `json:"id"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
}

// wsEventEntry is one server-side scenario event. These are debug records,
// not part of the compared artifact.
type wsEventEntry struct {
	TS         string `json:"ts"`
	ID         string `json:"id"`
	Scenario   string `json:"scenario"`
	Event      string `json:"event"`
	PayloadHex string `json:"payload_hex,omitempty"`
	CloseCode  int    `json:"close_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
