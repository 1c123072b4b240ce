// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	applog "dronebeat/internal/log"
)

// Operating modes for the actuator backend.
const (
	ModeSimulated = "simulated"
	ModeReal      = "real"
)

// Audio capture bounds. Values outside these ranges are rejected by
// Validate rather than handed to PortAudio.
const (
	MinDeviceID     = -1 // -1 selects the system default input device
	MinSampleRate   = 8000.0
	MaxSampleRate   = 192000.0
	MaxBufferFrames = 8192
	MaxChannels     = 2
)

// Defaults applied by Default and by Load when a field is absent.
const (
	DefaultSampleRate       = 44100.0
	DefaultFramesPerBuffer  = 512
	DefaultChannels         = 1
	DefaultBlockTimeoutSec  = 0.25
	DefaultEnergyThreshold  = 0.01
	DefaultMinBeatInterval  = 0.2
	DefaultSmoothing        = 0.9
	DefaultBaselineFloor    = 1e-6
	DefaultCalibrateBlocks  = 30
	DefaultBatteryFloor     = 15
	DefaultSettleDelaySec   = 1.0
	DefaultCommandTimeout   = 3.0
	DefaultMoveTimeout      = 10.0
	DefaultDroneAddr        = "192.168.10.1:8889"
	DefaultStatePort        = 8890
	DefaultMonitorAddr      = ":8089"
	DefaultSpectrumSize     = 1024
	DefaultEmitIntervalSec  = 0.1
	DefaultBatteryPollSec   = 10.0
	DefaultTelemetryTopic   = "dronebeat"
	DefaultTelemetryBroker  = "tcp://localhost:1883"
	DefaultTelemetryQoS     = 0
	DefaultLogLevel         = "info"
)

// AudioConfig selects and shapes the capture stream.
type AudioConfig struct {
	DeviceID        int     `yaml:"device_id"`
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	Channels        int     `yaml:"channels"`
	LowLatency      bool    `yaml:"low_latency"`
	BlockTimeout    float64 `yaml:"block_timeout"` // seconds
}

// BeatConfig parameterizes the energy detector. Durations are seconds.
type BeatConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"`
	MinBeatInterval float64 `yaml:"min_beat_interval"`
	Smoothing       float64 `yaml:"smoothing"`
	BaselineFloor   float64 `yaml:"baseline_floor"`
	Calibrate       bool    `yaml:"calibrate"`
	CalibrateBlocks int     `yaml:"calibrate_blocks"`
}

// FlightConfig covers the actuator session: safety limits, drone
// addressing and command pacing. Durations are seconds.
type FlightConfig struct {
	BatteryFloor   int     `yaml:"battery_floor"`
	SettleDelay    float64 `yaml:"settle_delay"`
	DroneAddr      string  `yaml:"drone_addr"`
	StatePort      int     `yaml:"state_port"`
	CommandTimeout float64 `yaml:"command_timeout"`
	MoveTimeout    float64 `yaml:"move_timeout"`
	BatteryPoll    float64 `yaml:"battery_poll"`
	Seed           int64   `yaml:"seed"` // 0 seeds move selection from the clock
}

// MonitorConfig controls the websocket event feed.
type MonitorConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Addr         string  `yaml:"addr"`
	SpectrumSize int     `yaml:"spectrum_size"`
	EmitInterval float64 `yaml:"emit_interval"` // seconds
}

// TelemetryConfig controls the MQTT publisher.
type TelemetryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TopicRoot string `yaml:"topic_root"`
}

// Config is the resolved runtime configuration. Precedence, lowest to
// highest: built-in defaults, YAML file, .env file, DRONEBEAT_*
// environment variables, command-line flags.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	Mode     string `yaml:"mode"`

	Audio     AudioConfig     `yaml:"audio"`
	Beat      BeatConfig      `yaml:"beat"`
	Flight    FlightConfig    `yaml:"flight"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// CLI routing, not serialized.
	Command     string `yaml:"-"`
	Interactive bool   `yaml:"-"`
	ConfigFile  string `yaml:"-"`
}

// Default returns a Config with every field set to its documented
// default. The result validates.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Mode:     ModeSimulated,
		Audio: AudioConfig{
			DeviceID:        MinDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			LowLatency:      true,
			BlockTimeout:    DefaultBlockTimeoutSec,
		},
		Beat: BeatConfig{
			EnergyThreshold: DefaultEnergyThreshold,
			MinBeatInterval: DefaultMinBeatInterval,
			Smoothing:       DefaultSmoothing,
			BaselineFloor:   DefaultBaselineFloor,
			Calibrate:       false,
			CalibrateBlocks: DefaultCalibrateBlocks,
		},
		Flight: FlightConfig{
			BatteryFloor:   DefaultBatteryFloor,
			SettleDelay:    DefaultSettleDelaySec,
			DroneAddr:      DefaultDroneAddr,
			StatePort:      DefaultStatePort,
			CommandTimeout: DefaultCommandTimeout,
			MoveTimeout:    DefaultMoveTimeout,
			BatteryPoll:    DefaultBatteryPollSec,
		},
		Monitor: MonitorConfig{
			Enabled:      false,
			Addr:         DefaultMonitorAddr,
			SpectrumSize: DefaultSpectrumSize,
			EmitInterval: DefaultEmitIntervalSec,
		},
		Telemetry: TelemetryConfig{
			Enabled:   false,
			Broker:    DefaultTelemetryBroker,
			TopicRoot: DefaultTelemetryTopic,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with. It is
// called after all layers are merged, so a bad flag fails as fast as a
// bad file.
func (c *Config) Validate() error {
	if c.Mode != ModeSimulated && c.Mode != ModeReal {
		return fmt.Errorf("invalid mode %q (want %q or %q)", c.Mode, ModeSimulated, ModeReal)
	}
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	if c.Audio.DeviceID < MinDeviceID {
		return fmt.Errorf("invalid device ID %d", c.Audio.DeviceID)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample rate %.0f outside [%.0f, %.0f]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("frames per buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > MaxChannels {
		return fmt.Errorf("channel count %d outside [1, %d]", c.Audio.Channels, MaxChannels)
	}
	if c.Audio.BlockTimeout <= 0 {
		return fmt.Errorf("block timeout must be positive, got %g", c.Audio.BlockTimeout)
	}

	if c.Beat.EnergyThreshold < 0 {
		return fmt.Errorf("energy threshold must be non-negative, got %g", c.Beat.EnergyThreshold)
	}
	if c.Beat.MinBeatInterval <= 0 {
		return fmt.Errorf("min beat interval must be positive, got %g", c.Beat.MinBeatInterval)
	}
	if c.Beat.Smoothing < 0 || c.Beat.Smoothing >= 1 {
		return fmt.Errorf("smoothing %g outside [0, 1)", c.Beat.Smoothing)
	}
	if c.Beat.BaselineFloor <= 0 {
		return fmt.Errorf("baseline floor must be positive, got %g", c.Beat.BaselineFloor)
	}
	if c.Beat.Calibrate && c.Beat.CalibrateBlocks <= 0 {
		return fmt.Errorf("calibration needs a positive block count, got %d", c.Beat.CalibrateBlocks)
	}

	if c.Flight.BatteryFloor < 0 || c.Flight.BatteryFloor > 100 {
		return fmt.Errorf("battery floor %d outside [0, 100]", c.Flight.BatteryFloor)
	}
	if c.Flight.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be non-negative, got %g", c.Flight.SettleDelay)
	}
	if c.Mode == ModeReal {
		if c.Flight.DroneAddr == "" {
			return fmt.Errorf("real mode requires a drone address")
		}
		if c.Flight.StatePort <= 0 || c.Flight.StatePort > 65535 {
			return fmt.Errorf("invalid state port %d", c.Flight.StatePort)
		}
		if c.Flight.CommandTimeout <= 0 || c.Flight.MoveTimeout <= 0 {
			return fmt.Errorf("command timeouts must be positive")
		}
	}

	if c.Monitor.Enabled {
		if c.Monitor.Addr == "" {
			return fmt.Errorf("monitor requires a listen address")
		}
		if c.Monitor.SpectrumSize <= 0 || c.Monitor.SpectrumSize > MaxBufferFrames {
			return fmt.Errorf("spectrum size %d outside (0, %d]", c.Monitor.SpectrumSize, MaxBufferFrames)
		}
		if c.Monitor.EmitInterval <= 0 {
			return fmt.Errorf("emit interval must be positive, got %g", c.Monitor.EmitInterval)
		}
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Broker == "" {
			return fmt.Errorf("telemetry requires a broker URL")
		}
		if c.Telemetry.TopicRoot == "" {
			return fmt.Errorf("telemetry requires a topic root")
		}
	}

	return nil
}

// Seconds converts a float seconds field to a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
