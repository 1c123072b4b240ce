package tello

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// controlConn is the command/response channel to the drone. The SDK
// protocol is strictly serial: one text command out, one text reply
// back, so a mutex holds the channel for the whole round trip.
type controlConn struct {
	conn   *net.UDPConn
	mu     sync.Mutex
	closed bool
	buf    [512]byte
}

func dialControl(addr string) (*controlConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve control address %q: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial control address %q: %w", addr, err)
	}

	return &controlConn{conn: conn}, nil
}

// roundTrip sends one command and waits for its reply. Every call is
// bounded by timeout (or by an earlier ctx deadline), so the caller's
// shutdown latency stays bounded even though a UDP read cannot be
// interrupted by a bare cancellation.
func (c *controlConn) roundTrip(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", fmt.Errorf("control connection is closed")
	}

	// A reply that arrived after an earlier command timed out is still
	// queued on the socket; drain it so it cannot be mistaken for this
	// command's response.
	c.conn.SetReadDeadline(time.Now())
	for {
		if _, err := c.conn.Read(c.buf[:]); err != nil {
			break
		}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("failed to set read deadline: %w", err)
	}

	if _, err := c.conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("failed to send %q: %w", cmd, err)
	}

	n, err := c.conn.Read(c.buf[:])
	if err != nil {
		return "", fmt.Errorf("no reply to %q: %w", cmd, err)
	}
	return strings.TrimSpace(string(c.buf[:n])), nil
}

func (c *controlConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
