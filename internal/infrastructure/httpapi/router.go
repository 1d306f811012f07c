package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"httparity/internal/infrastructure/config"
	obs "httparity/internal/infrastructure/observability"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics

	ObserveLog *LogWriter
	ProxyLog   *LogWriter
	WSLog      *LogWriter

	// WSEventsLog is optional; nil disables scenario event records.
	WSEventsLog *LogWriter
}

// NewObserveRouter serves the observation endpoint set plus health/metrics.
func NewObserveRouter(d *Deps) http.Handler {
	mux := http.NewServeMux()
	registerOps(d, mux)

	mux.HandleFunc("/login", d.observed(d.handleLogin))
	mux.HandleFunc("/home", d.observed(d.handleHome))
	mux.HandleFunc("/cookie", d.observed(d.handleCookie))
	mux.HandleFunc("/empty_200", d.observed(d.handleEmpty200))
	mux.HandleFunc("/no_content", d.observed(d.handleNoContent))
	mux.HandleFunc("/resp_headers", d.observed(d.handleRespHeaders))
	mux.HandleFunc("/head", d.observed(d.handleHead))
	mux.HandleFunc("/method", d.observed(d.handleMethod))
	mux.HandleFunc("/multipart", d.observed(d.handleMultipart))
	mux.HandleFunc("/redir/", d.observed(d.handleRedir))
	mux.HandleFunc("/status/", d.observed(d.handleStatus))
	mux.HandleFunc("/delay_headers/", d.observed(d.handleDelayHeaders))
	mux.HandleFunc("/stall_body/", d.observed(d.handleStallBody))
	mux.HandleFunc("/slow_body/", d.observed(d.handleSlowBody))
	mux.HandleFunc("/data/", d.observed(d.handleData))
	return mux
}

// NewWSRouter serves the websocket scenario endpoint plus health/metrics.
func NewWSRouter(d *Deps) http.Handler {
	mux := http.NewServeMux()
	registerOps(d, mux)
	mux.HandleFunc("/ws", d.handleWSScenario)
	return mux
}

func registerOps(d *Deps, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))
}

func clientHost(remote string) string {
	if h, _, err := net.SplitHostPort(remote); err == nil {
		return h
	}
	return remote
}

func peerPort(remote string) int {
	if _, p, err := net.SplitHostPort(remote); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	return 0
}

var requestHeaderAllow = []string{
	"host", "range", "cookie", "authorization", "accept-encoding",
	"content-length", "content-type", "user-agent", "if-range",
}

// Logged Location values have the correlation token stripped (see
// logObserve); redirect targets would otherwise differ per run.
var responseHeaderAllow = []string{
	"content-length", "content-range", "content-type", "set-cookie",
	"location", "www-authenticate", "accept-ranges", "content-encoding",
}

func pickHeaders(h http.Header, allow []string) map[string]string {
	out := map[string]string{}
	for _, name := range allow {
		vals := h.Values(name)
		if len(vals) == 0 {
			continue
		}
		out[name] = strings.Join(vals, ", ")
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
