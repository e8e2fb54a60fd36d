package server

import (
	"encoding/json"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"card-czar/internal/cards"
	"card-czar/internal/config"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestApp(t *testing.T, mirrors ...Mirror) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(Options{
		Config:   config.Default(),
		Supplier: cards.NewPackSupplier(cards.DefaultPack(), rand.New(rand.NewPCG(1, 2))),
		Mirrors:  mirrors,
		Clock:    clockwork.NewFakeClock(),
	})
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown()
	})
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write websocket frame: %v", err)
	}
}

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) testFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var frame testFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode websocket frame %s: %v", payload, err)
	}
	return frame
}

// waitForEvent reads frames until one named event satisfies match.
func waitForEvent(t *testing.T, conn *websocket.Conn, event string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	seen := []string{}
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("timed out waiting for %s; seen=%v", event, seen)
		}
		frame := readFrame(t, conn, remaining)
		seen = append(seen, frame.Event)
		if frame.Event == event && (match == nil || match(frame.Data)) {
			return frame.Data
		}
	}
}

func stateIs(state string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var snap struct {
			State string `json:"state"`
		}
		return json.Unmarshal(raw, &snap) == nil && snap.State == state
	}
}
