// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// setupWebSocketServer creates a test WebSocket server with a custom handler
func setupWebSocketServer(t *testing.T, handler func(t *testing.T, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		handler(t, conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server), header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	return conn
}

// waitForChannel waits for a channel signal with timeout
func waitForChannel(t *testing.T, ch <-chan bool, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Errorf("%s: timeout after %v", msg, timeout)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, "alice")

	if client.hub != hub {
		t.Error("Client hub not set correctly")
	}
	if client.UserID() != "alice" {
		t.Errorf("Expected user alice, got %s", client.UserID())
	}
	if cap(client.send) != sendBuffer {
		t.Errorf("Expected send channel capacity %d, got %d", sendBuffer, cap(client.send))
	}

	next := NewClient(hub, nil, "alice")
	if next.ID() <= client.ID() {
		t.Errorf("Expected increasing client ids, got %d then %d", client.ID(), next.ID())
	}
}

func TestClient_Constants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("Expected pingPeriod %v below pongWait %v", pingPeriod, pongWait)
	}
	if writeWait != 10*time.Second {
		t.Errorf("Expected writeWait 10s, got %v", writeWait)
	}
}

func TestClient_WritePump_SendMessage(t *testing.T) {
	hub := NewHub()

	messageReceived := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("Failed to read message: %v", err)
			return
		}
		if msg.Type != MessageTypeFeedStatus {
			t.Errorf("Expected message type %s, got %s", MessageTypeFeedStatus, msg.Type)
		}
		if string(msg.Data) != `{"tone":"info"}` {
			t.Errorf("Expected raw data preserved, got %s", msg.Data)
		}
		messageReceived <- true
	})
	defer server.Close()

	conn := dialWebSocket(t, server, nil)
	defer conn.Close()

	client := NewClient(hub, conn, "alice")
	go client.writePump()

	client.send <- Message{Type: MessageTypeFeedStatus, Data: []byte(`{"tone":"info"}`)}

	waitForChannel(t, messageReceived, time.Second, "Message not received")
}

func TestClient_ReadPump_PingPong(t *testing.T) {
	hub := startHub(t)

	receivedPong := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
			t.Errorf("Failed to write ping: %v", err)
			return
		}
		var pong Message
		if err := conn.ReadJSON(&pong); err != nil {
			t.Errorf("Failed to read pong: %v", err)
			return
		}
		if pong.Type == MessageTypePong {
			receivedPong <- true
		}
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server, nil)
	defer conn.Close()

	client := NewClient(hub, conn, "alice")
	hub.Register <- client
	client.Start()

	waitForChannel(t, receivedPong, time.Second, "Pong not received")
}

func TestClient_ReadPump_ConnectionClose(t *testing.T) {
	hub := NewHub()

	unregistered := make(chan bool, 1)
	go func() {
		select {
		case <-hub.Unregister:
			unregistered <- true
		case <-time.After(2 * time.Second):
		}
	}()

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		conn.Close()
	})
	defer server.Close()

	conn := dialWebSocket(t, server, nil)
	client := NewClient(hub, conn, "alice")
	go client.readPump()

	waitForChannel(t, unregistered, time.Second, "Client not unregistered after connection close")
}

func TestClient_WritePump_ChannelClose(t *testing.T) {
	hub := NewHub()

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	conn := dialWebSocket(t, server, nil)

	client := NewClient(hub, conn, "alice")
	done := make(chan bool, 1)
	go func() {
		client.writePump()
		done <- true
	}()

	close(client.send)
	waitForChannel(t, done, time.Second, "writePump did not exit after channel close")
}

func TestServeWS_DeliversUserEvents(t *testing.T) {
	hub := startHub(t)
	upgrader := NewUpgrader([]string{"http://app.example"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ServeWS(hub, &upgrader, w, r, r.URL.Query().Get("user")); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	defer server.Close()

	header := http.Header{"Origin": []string{"http://app.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server)+"?user=alice", header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	waitForCount(t, hub, 1)
	hub.Deliver("bob", MessageTypePrefsChanged, []byte(`{"id":1}`))
	hub.Deliver("alice", MessageTypePrefsChanged, []byte(`{"id":2}`))

	if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
		t.Fatalf("Failed to set deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	if msg.Type != MessageTypePrefsChanged || string(msg.Data) != `{"id":2}` {
		t.Errorf("Expected alice's prefs.changed event, got %s %s", msg.Type, msg.Data)
	}
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"missing origin", []string{"*"}, "", false},
		{"wildcard", []string{"*"}, "http://anywhere", true},
		{"listed", []string{"http://a.example", "http://b.example"}, "http://b.example", true},
		{"case insensitive", []string{"http://A.example"}, "http://a.example", true},
		{"unlisted", []string{"http://a.example"}, "http://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upgrader := NewUpgrader(tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/api/feed/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := upgrader.CheckOrigin(req); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSanitizeOrigin(t *testing.T) {
	if got := sanitizeOrigin("http://a\r\nexample"); got != "http://aexample" {
		t.Errorf("Expected control characters stripped, got %q", got)
	}
	if got := sanitizeOrigin(strings.Repeat("x", 500)); len(got) != 200 {
		t.Errorf("Expected truncation to 200, got %d", len(got))
	}
}
