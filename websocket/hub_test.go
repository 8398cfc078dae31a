package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("want %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastAndSubscribe(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	all := dial(t, srv)
	picky := dial(t, srv)
	waitForClients(t, hub, 2)

	if err := picky.WriteJSON(map[string]interface{}{"action": "subscribe", "topics": []string{"messages_update"}}); err != nil {
		t.Fatal(err)
	}
	// Give the read pump a moment to apply the subscription.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("system_update", map[string]int{"cpu": 12})
	hub.Broadcast("messages_update", map[string]int{"messages_today": 3})

	var ev Event
	all.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := all.ReadJSON(&ev); err != nil || ev.Type != "system_update" {
		t.Fatalf("unsubscribed client should get everything: %+v %v", ev, err)
	}

	picky.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := picky.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type != "messages_update" {
		t.Errorf("subscribed client should only get messages_update, got %s", data)
	}
}

func TestHub_Disconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)
}
