package httpapi

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWSScenario upgrades the connection and plays the requested frame
// sequence. With no scenario the server echoes until the client closes.
func (d *Deps) handleWSScenario(w http.ResponseWriter, r *http.Request) {
	scenario := r.URL.Query().Get("scenario")
	if scenario == "" {
		scenario = "echo"
	}
	id := r.URL.Query().Get("id")
	d.logWSHandshake(r)
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Logger.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()
	d.Metrics.WSScenariosTotal.WithLabelValues(scenario).Inc()
	d.Logger.Info().Str("scenario", scenario).Str("client", clientHost(r.RemoteAddr)).Msg("ws scenario started")

	switch scenario {
	case "lc_ping":
		d.runPingScenario(conn, id, scenario)
	case "lc_frame_types":
		d.runFrameTypesScenario(conn, id, scenario)
	case "lc_close":
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_close_sent", CloseCode: websocket.CloseNormalClosure, Reason: "bye"})
	default:
		d.runEchoScenario(conn)
	}
}

func (d *Deps) logWSHandshake(r *http.Request) {
	e := wsEntry{
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		ID:      r.URL.Query().Get("id"),
		Path:    r.URL.RequestURI(),
		Headers: pickHeaders(r.Header, wsHeaderAllow),
	}
	if err := d.WSLog.Append(e); err != nil {
		d.Logger.Error().Err(err).Msg("ws handshake log append failed")
	}
}

// logWSEvent appends to the optional scenario events log; a nil writer
// disables it.
func (d *Deps) logWSEvent(e wsEventEntry) {
	if d.WSEventsLog == nil {
		return
	}
	e.TS = time.Now().UTC().Format(time.RFC3339Nano)
	if err := d.WSEventsLog.Append(e); err != nil {
		d.Logger.Error().Err(err).Msg("ws event log append failed")
	}
}

var wsHeaderAllow = []string{
	"sec-websocket-version", "sec-websocket-protocol",
	"sec-websocket-extensions", "origin", "user-agent",
}

func (d *Deps) runEchoScenario(conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if err := conn.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

// runPingScenario pings the client, waits for the pong, confirms with a
// text frame and closes.
func (d *Deps) runPingScenario(conn *websocket.Conn, id, scenario string) {
	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})
	payload := []byte("lc1")
	if err := conn.WriteControl(websocket.PingMessage, payload, time.Now().Add(time.Second)); err != nil {
		return
	}
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_ping_sent", PayloadHex: hex.EncodeToString(payload)})
	// pongs are delivered by the read loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	select {
	case <-pong:
		d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_pong_received"})
	case <-time.After(5 * time.Second):
		d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_pong_timeout"})
	case <-done:
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte("ping-done"))
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_text_sent"})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_close_sent", CloseCode: websocket.CloseNormalClosure})
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

// runFrameTypesScenario emits one frame of each kind, then closes.
func (d *Deps) runFrameTypesScenario(conn *websocket.Conn, id, scenario string) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte("text-frame")); err != nil {
		return
	}
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_text_sent"})
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02, 0x03}); err != nil {
		return
	}
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_binary_sent", PayloadHex: "010203"})
	if err := conn.WriteControl(websocket.PingMessage, []byte("p"), time.Now().Add(time.Second)); err != nil {
		return
	}
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_ping_sent", PayloadHex: hex.EncodeToString([]byte("p"))})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	d.logWSEvent(wsEventEntry{ID: id, Scenario: scenario, Event: "server_close_sent", CloseCode: websocket.CloseNormalClosure})
}
