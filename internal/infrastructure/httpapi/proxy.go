package httpapi

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"httparity/pkg/shared/redact"
)

// NewProxyHandler routes CONNECT and absolute-URI requests as a standard
// forward proxy. Anything else falls through to health/metrics.
func NewProxyHandler(d *Deps) http.Handler {
	mux := http.NewServeMux()
	registerOps(d, mux)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodConnect || (r.URL != nil && r.URL.Scheme != "" && r.URL.Host != "") {
			d.handleForwardProxy(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (d *Deps) handleForwardProxy(w http.ResponseWriter, r *http.Request) {
	d.Metrics.ProxyRequestsTotal.WithLabelValues(r.Method).Inc()
	authOK := d.proxyAuthOK(r)
	d.logProxy(r, authOK)
	if !authOK {
		d.Metrics.ProxyAuthFailures.Inc()
		w.Header().Set("Proxy-Authenticate", `Basic realm="httparity"`)
		writeError(w, http.StatusProxyAuthRequired, "PROXY_AUTH_REQUIRED", "proxy authentication required", nil)
		return
	}
	if r.Method == http.MethodConnect {
		d.handleConnectTunnel(w, r)
		return
	}
	d.handleHTTPForwardRequest(w, r)
}

func (d *Deps) proxyAuthOK(r *http.Request) bool {
	raw := r.Header.Get("Proxy-Authorization")
	const prefix = "Basic "
	if !strings.HasPrefix(raw, prefix) {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(raw[len(prefix):])
	if err != nil {
		return false
	}
	want := d.Cfg.ProxyUsername + ":" + d.Cfg.ProxyPassword
	return subtle.ConstantTimeCompare(decoded, []byte(want)) == 1
}

func (d *Deps) logProxy(r *http.Request, authOK bool) {
	target := r.URL.String()
	id := r.URL.Query().Get("id")
	if r.Method == http.MethodConnect {
		target = r.Host
		id = ""
	}
	e := proxyEntry{
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		ID:      id,
		Method:  r.Method,
		Target:  target,
		Version: r.Proto,
		AuthOK:  authOK,
		Headers: redact.Headers(pickHeaders(r.Header, proxyHeaderAllow)),
	}
	if err := d.ProxyLog.Append(e); err != nil {
		d.Logger.Error().Err(err).Msg("proxy log append failed")
	}
}

var proxyHeaderAllow = append([]string{"proxy-authorization", "proxy-connection"}, requestHeaderAllow...)

func (d *Deps) hostAllowed(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	if len(d.Cfg.ProxyAllowHosts) == 0 {
		return host == "localhost" || host == "127.0.0.1" || host == "::1"
	}
	for _, allowed := range d.Cfg.ProxyAllowHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (d *Deps) handleConnectTunnel(w http.ResponseWriter, r *http.Request) {
	upstream := r.Host
	if !d.hostAllowed(upstream) {
		writeError(w, http.StatusForbidden, "HOST_NOT_ALLOWED", "target host not allowed", map[string]any{"target": upstream})
		return
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		writeError(w, http.StatusInternalServerError, "HIJACK_NOT_SUPPORTED", "proxy: hijacking not supported", nil)
		return
	}
	clientConn, bufrw, err := hj.Hijack()
	if err != nil {
		return
	}
	upstreamConn, err := net.DialTimeout("tcp", upstream, time.Duration(d.Cfg.DialTimeoutMs)*time.Millisecond)
	if err != nil {
		_, _ = bufrw.WriteString("HTTP/1.1 502 Bad Gateway\r\n\r\n")
		_ = bufrw.Flush()
		_ = clientConn.Close()
		return
	}
	_, _ = bufrw.WriteString("HTTP/1.1 200 Connection Established\r\n\r\n")
	_ = bufrw.Flush()

	d.Metrics.ActiveTunnels.Inc()
	d.Logger.Debug().Str("target", upstream).Msg("tunnel established")

	idle := time.Duration(d.Cfg.RelayIdleMs) * time.Millisecond
	act := newTunnelActivity()
	var g errgroup.Group
	g.Go(func() error { return relayHalf(upstreamConn, clientConn, idle, act) })
	g.Go(func() error { return relayHalf(clientConn, upstreamConn, idle, act) })
	_ = g.Wait()
	_ = clientConn.Close()
	_ = upstreamConn.Close()
	d.Metrics.ActiveTunnels.Dec()
}

// tunnelActivity is the shared last-I/O clock of one tunnel. The idle
// window applies to the tunnel as a whole: a half that times out while the
// other half is still moving bytes re-arms instead of closing.
type tunnelActivity struct {
	last atomic.Int64
}

func newTunnelActivity() *tunnelActivity {
	a := &tunnelActivity{}
	a.touch()
	return a
}

func (a *tunnelActivity) touch() { a.last.Store(time.Now().UnixNano()) }

func (a *tunnelActivity) idleFor(d time.Duration) bool {
	return time.Since(time.Unix(0, a.last.Load())) >= d
}

// relayHalf copies one tunnel direction. Each read is deadline-bounded so
// the half can periodically check the shared activity clock; the tunnel
// closes only when BOTH directions have been silent for the idle window.
func relayHalf(dst, src net.Conn, idle time.Duration, act *tunnelActivity) error {
	buf := make([]byte, 32*1024)
	for {
		if idle > 0 {
			_ = src.SetReadDeadline(time.Now().Add(idle))
		}
		n, err := src.Read(buf)
		if n > 0 {
			act.touch()
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			var ne net.Error
			if idle > 0 && errors.As(err, &ne) && ne.Timeout() && !act.idleFor(idle) {
				continue
			}
			// unblock the opposite half
			if tc, ok := dst.(*net.TCPConn); ok {
				_ = tc.CloseRead()
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (d *Deps) handleHTTPForwardRequest(w http.ResponseWriter, r *http.Request) {
	outURL := *r.URL
	outReq := r.Clone(r.Context())
	outReq.URL = &outURL
	outReq.Host = outURL.Host
	outReq.RequestURI = ""
	outReq.Header = cloneHeader(outReq.Header)
	removeHopHeaders(outReq.Header)
	if ip := clientHost(r.RemoteAddr); ip != "" {
		outReq.Header.Set("X-Forwarded-For", ip)
	}
	outReq.Header.Set("Via", "httparity-proxy")

	resp, err := http.DefaultTransport.RoundTrip(outReq)
	if err != nil {
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), map[string]any{"target": outURL.String()})
		return
	}
	defer resp.Body.Close()
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

var hopHeaders = []string{
	"Connection", "Proxy-Connection", "Keep-Alive", "Proxy-Authenticate",
	"Proxy-Authorization", "Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

func removeHopHeaders(h http.Header) {
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

func cloneHeader(h http.Header) http.Header {
	dst := make(http.Header, len(h))
	for k, vv := range h {
		cp := make([]string, len(vv))
		copy(cp, vv)
		dst[k] = cp
	}
	return dst
}

func copyHeader(dst http.Header, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
