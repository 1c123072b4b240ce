// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	applog "dronebeat/internal/log"
)

const (
	hubBroadcastDepth = 256
	hubWriteWait      = 5 * time.Second
)

// Hub is a websocket monitor endpoint. Browsers connect to /events and
// receive every session event as a JSON text frame. Slow consumers
// shed load in two places: the broadcast queue drops frames when full,
// and a client missing its write deadline is disconnected.
type Hub struct {
	addr     string
	upgrader websocket.Upgrader

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	broadcast chan []byte
	listener  net.Listener
	server    *http.Server

	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Uint64
}

// NewHub prepares a hub listening on addr. Nothing is bound until
// Start.
func NewHub(addr string) *Hub {
	return &Hub{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The monitor is a local diagnostic surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, hubBroadcastDepth),
		done:      make(chan struct{}),
	}
}

// Start binds the listener and begins serving /events. Using ":0"
// picks a free port; Addr reports the bound address.
func (h *Hub) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", h.handleEvents)

	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("monitor listen on %s: %w", h.addr, err)
	}
	h.listener = listener
	h.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("monitor: serving websocket events on ws://%s/events", listener.Addr())
		if err := h.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			applog.Errorf("monitor: server error: %v", err)
		}
	}()
	go h.run()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (h *Hub) Addr() string {
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return h.addr
}

func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("monitor: upgrade error: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.clientsMu.Unlock()
	applog.Infof("monitor: client connected, total: %d", total)

	// The read pump exists only to notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.dropClient(conn)
				return
			}
		}
	}()
}

func (h *Hub) dropClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		applog.Infof("monitor: client disconnected, total: %d", len(h.clients))
	}
	h.clientsMu.Unlock()
	conn.Close()
}

// run drains the broadcast queue into every connected client.
func (h *Hub) run() {
	for {
		select {
		case frame := <-h.broadcast:
			h.deliver(frame)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) deliver(frame []byte) {
	h.clientsMu.Lock()
	var dead []*websocket.Conn
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := client.WriteMessage(websocket.TextMessage, frame); err != nil {
			dead = append(dead, client)
		}
	}
	for _, client := range dead {
		delete(h.clients, client)
		client.Close()
	}
	h.clientsMu.Unlock()

	if len(dead) > 0 {
		applog.Warnf("monitor: dropped %d unresponsive client(s)", len(dead))
	}
}

// Send marshals data once and queues it for broadcast. When the queue
// is full the frame is dropped; the monitor never applies backpressure
// to the dispatch loop.
func (h *Hub) Send(data any) error {
	if h.closed.Load() {
		return fmt.Errorf("monitor hub is closed")
	}

	frame, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("monitor marshal: %w", err)
	}

	select {
	case h.broadcast <- frame:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// Dropped reports frames shed because the broadcast queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects all clients and shuts the server down.
func (h *Hub) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	close(h.done)

	h.clientsMu.Lock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.clientsMu.Unlock()

	if h.server != nil {
		return h.server.Close()
	}
	return nil
}

var _ Transport = (*Hub)(nil)
