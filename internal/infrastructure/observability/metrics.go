package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry           *prometheus.Registry
	RequestsObserved   *prometheus.CounterVec
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyAuthFailures  prometheus.Counter
	ActiveTunnels      prometheus.Gauge
	WSScenariosTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		RequestsObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httparity",
			Name:      "requests_observed_total",
			Help:      "Requests logged by the observation server",
		}, []string{"route", "proto"}),
		ProxyRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httparity",
			Name:      "proxy_requests_total",
			Help:      "Forward proxy requests by method",
		}, []string{"method"}),
		ProxyAuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httparity",
			Name:      "proxy_auth_failures_total",
			Help:      "Requests rejected with 407",
		}),
		ActiveTunnels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "httparity",
			Name:      "active_tunnels",
			Help:      "Open CONNECT tunnels",
		}),
		WSScenariosTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httparity",
			Name:      "ws_scenarios_total",
			Help:      "WebSocket scenario runs",
		}, []string{"scenario"}),
	}
	r.MustRegister(m.RequestsObserved, m.ProxyRequestsTotal, m.ProxyAuthFailures,
		m.ActiveTunnels, m.WSScenariosTotal)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
