// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "dronebeat/internal/log"
)

// DebugTransport logs every event at debug level instead of
// transmitting it. Useful as the only sink during development and as
// a fanout member when diagnosing what the monitor should be seeing.
type DebugTransport struct{}

func NewDebugTransport() *DebugTransport {
	return &DebugTransport{}
}

// Send logs the data and never fails.
func (dt *DebugTransport) Send(data any) error {
	if applog.GetLevel() > applog.LevelDebug {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		applog.Debugf("event (%T): %+v", data, data)
		return nil
	}
	applog.Debugf("event: %s", encoded)
	return nil
}

// Close is a no-op.
func (dt *DebugTransport) Close() error {
	return nil
}

var _ Transport = (*DebugTransport)(nil)
