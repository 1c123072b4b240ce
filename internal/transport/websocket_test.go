// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubRoundtrip(t *testing.T) {
	hub := NewHub("127.0.0.1:0")
	if err := hub.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer hub.Close()

	url := "ws://" + hub.Addr() + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close()

	// Registration races the dial handshake, so keep sending until the
	// client sees a frame.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		event := Event{Type: EventBeat, Session: "s1", At: time.Now(), Energy: 0.7}
		for {
			select {
			case <-stop:
				return
			default:
				hub.Send(event)
				time.Sleep(20 * time.Millisecond)
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var got Event
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("unmarshal frame %s: %v", frame, err)
	}
	if got.Type != EventBeat || got.Session != "s1" {
		t.Errorf("frame = %+v, want beat event for session s1", got)
	}
}

func TestHubSendAfterClose(t *testing.T) {
	hub := NewHub("127.0.0.1:0")
	if err := hub.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := hub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := hub.Send(Event{Type: EventBeat}); err == nil {
		t.Error("Send after Close should fail")
	}

	// Second close is a no-op.
	if err := hub.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}
}

func TestHubSendWithoutClients(t *testing.T) {
	hub := NewHub("127.0.0.1:0")
	if err := hub.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer hub.Close()

	// No clients connected: sends succeed and are simply not delivered
	// anywhere.
	for range 10 {
		if err := hub.Send(Event{Type: EventEnergy, Energy: 0.1}); err != nil {
			t.Fatalf("Send without clients: %v", err)
		}
	}
}

func TestHubSendUnmarshalable(t *testing.T) {
	hub := NewHub("127.0.0.1:0")
	if err := hub.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer hub.Close()

	if err := hub.Send(func() {}); err == nil {
		t.Error("expected marshal error for a func value")
	}
}
