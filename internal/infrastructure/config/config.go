package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	LogLevel string

	// Observation server
	ObserveAddr    string
	ObserveLogFile string
	DocsDir        string
	// Optional TLS listener (HTTP/2 via ALPN). Starts only when cert+key are set.
	TLSAddr     string
	TLSCertFile string
	TLSKeyFile  string

	// Forward proxy
	ProxyAddr     string
	ProxyLogFile  string
	ProxyUsername string
	ProxyPassword string
	// If empty, CONNECT is restricted to localhost targets.
	ProxyAllowHosts []string
	RelayIdleMs     int
	DialTimeoutMs   int

	// WebSocket scenario server
	WSAddr             string
	WSHandshakeLogFile string
	// If empty, scenario events are not recorded.
	WSEventsLogFile string

	// Gate driver
	ArtifactsDir string
	DebugLogDir  string
	CollectLogs  bool
}

func FromEnv() Config {
	cfg := Config{
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ObserveAddr:        getEnv("OBSERVE_ADDR", ":8801"),
		ObserveLogFile:     getEnv("OBSERVE_LOG_FILE", "observe_http.jsonl"),
		DocsDir:            getEnv("DOCS_DIR", ""),
		TLSAddr:            getEnv("TLS_ADDR", ""),
		TLSCertFile:        getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:         getEnv("TLS_KEY_FILE", ""),
		ProxyAddr:          getEnv("PROXY_ADDR", ":8802"),
		ProxyLogFile:       getEnv("PROXY_LOG_FILE", "proxy_requests.jsonl"),
		ProxyUsername:      getEnv("PROXY_USERNAME", "lcuser"),
		ProxyPassword:      getEnv("PROXY_PASSWORD", "lcpass"),
		RelayIdleMs:        getEnvInt("RELAY_IDLE_MS", 30000),
		DialTimeoutMs:      getEnvInt("DIAL_TIMEOUT_MS", 10000),
		WSAddr:             getEnv("WS_ADDR", ":8803"),
		WSHandshakeLogFile: getEnv("WS_HANDSHAKE_LOG_FILE", "ws_handshake.jsonl"),
		WSEventsLogFile:    getEnv("WS_EVENTS_LOG_FILE", ""),
		ArtifactsDir:       getEnv("ARTIFACTS_DIR", "artifacts"),
		DebugLogDir:        getEnv("DEBUG_LOG_DIR", "debug_logs"),
	}
	if v := strings.TrimSpace(os.Getenv("PROXY_ALLOW_HOSTS")); v != "" {
		cfg.ProxyAllowHosts = splitCSV(v)
	}
	if v := os.Getenv("COLLECT_LOGS"); v == "1" || v == "true" {
		cfg.CollectLogs = true
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// splitCSV splits comma-separated tokens trimming whitespace and skipping empties.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
