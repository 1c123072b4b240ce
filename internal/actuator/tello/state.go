// SPDX-License-Identifier: MIT
package tello

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"

	applog "dronebeat/internal/log"
)

// stateListener receives the telemetry records the drone pushes to the
// state port and feeds battery readings back to the session. It is
// best-effort: losing it degrades battery freshness, not flight.
type stateListener struct {
	conn     *net.UDPConn
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// listenState binds the state port and starts the reader goroutine.
// onBattery is called from that goroutine for every record that
// carries a battery field.
func listenState(addr string, onBattery func(pct int)) (*stateListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}

	l := &stateListener{conn: conn}
	l.wg.Add(1)
	go l.run(onBattery)
	return l, nil
}

func (l *stateListener) run(onBattery func(pct int)) {
	defer l.wg.Done()

	buf := make([]byte, 1024)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				applog.Warnf("state listener stopped: %v", err)
			}
			return
		}
		if pct, ok := parseBattery(string(buf[:n])); ok {
			onBattery(pct)
		}
	}
}

// Addr reports the bound address, which differs from the requested one
// when an ephemeral port was asked for.
func (l *stateListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Stop closes the socket and waits for the reader to exit.
func (l *stateListener) Stop() {
	l.stopOnce.Do(func() {
		l.conn.Close()
	})
	l.wg.Wait()
}

// parseBattery pulls the battery percentage out of a telemetry record.
// Records are semicolon-separated key:value fields, e.g.
// "pitch:0;roll:0;yaw:12;bat:87;baro:23.41;".
func parseBattery(record string) (int, bool) {
	for _, field := range strings.Split(record, ";") {
		value, found := strings.CutPrefix(field, "bat:")
		if !found {
			continue
		}
		pct, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return pct, true
	}
	return 0, false
}
