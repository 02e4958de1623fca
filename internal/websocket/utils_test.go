package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// echoServer answers pings with a pong frame and anything else with an
// error frame, the same contract the events stream speaks.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var msg RequestEnvelope
			if err := ReadJSON(conn, &msg); err != nil {
				return
			}
			switch msg.Action {
			case ActionPing:
				_ = WriteTyped(conn, PongFrame{Event: EventPong})
			default:
				_ = WriteError(conn, "unknown action")
			}
		}
	}))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	resp.Body.Close()
	return conn
}

func TestPingGetsPongFrame(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(RequestEnvelope{Action: ActionPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var frame PongFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Event != EventPong {
		t.Errorf("event = %q, want %q", frame.Event, EventPong)
	}
}

func TestUnknownActionGetsErrorFrame(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(RequestEnvelope{Action: "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var frame ErrorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Event != EventError {
		t.Errorf("event = %q, want %q", frame.Event, EventError)
	}
	if frame.Error != "unknown action" {
		t.Errorf("error = %q, want %q", frame.Error, "unknown action")
	}
}
