package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "hover" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"device below minimum", func(c *Config) { c.Audio.DeviceID = -2 }},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }},
		{"sample rate too high", func(c *Config) { c.Audio.SampleRate = 500000 }},
		{"zero buffer", func(c *Config) { c.Audio.FramesPerBuffer = 0 }},
		{"oversize buffer", func(c *Config) { c.Audio.FramesPerBuffer = MaxBufferFrames + 1 }},
		{"zero channels", func(c *Config) { c.Audio.Channels = 0 }},
		{"zero block timeout", func(c *Config) { c.Audio.BlockTimeout = 0 }},
		{"negative threshold", func(c *Config) { c.Beat.EnergyThreshold = -0.1 }},
		{"zero beat interval", func(c *Config) { c.Beat.MinBeatInterval = 0 }},
		{"negative beat interval", func(c *Config) { c.Beat.MinBeatInterval = -0.2 }},
		{"smoothing at one", func(c *Config) { c.Beat.Smoothing = 1.0 }},
		{"zero baseline floor", func(c *Config) { c.Beat.BaselineFloor = 0 }},
		{"calibrate without blocks", func(c *Config) { c.Beat.Calibrate = true; c.Beat.CalibrateBlocks = 0 }},
		{"battery floor over 100", func(c *Config) { c.Flight.BatteryFloor = 101 }},
		{"negative settle delay", func(c *Config) { c.Flight.SettleDelay = -1 }},
		{"real mode without address", func(c *Config) { c.Mode = ModeReal; c.Flight.DroneAddr = "" }},
		{"real mode bad state port", func(c *Config) { c.Mode = ModeReal; c.Flight.StatePort = 0 }},
		{"monitor without address", func(c *Config) { c.Monitor.Enabled = true; c.Monitor.Addr = "" }},
		{"monitor zero spectrum", func(c *Config) { c.Monitor.Enabled = true; c.Monitor.SpectrumSize = 0 }},
		{"telemetry without broker", func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Broker = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsZeroThreshold(t *testing.T) {
	cfg := Default()
	cfg.Beat.EnergyThreshold = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero threshold should be allowed: %v", err)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dance.yaml")
	body := `
mode: real
log_level: debug
audio:
  device_id: 3
  sample_rate: 48000
beat:
  energy_threshold: 0.05
  min_beat_interval: 0.35
flight:
  battery_floor: 25
  drone_addr: "192.168.10.1:8889"
monitor:
  enabled: true
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != ModeReal {
		t.Errorf("mode = %q, want %q", cfg.Mode, ModeReal)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Audio.DeviceID != 3 {
		t.Errorf("device = %d, want 3", cfg.Audio.DeviceID)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample rate = %g, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Beat.EnergyThreshold != 0.05 {
		t.Errorf("threshold = %g, want 0.05", cfg.Beat.EnergyThreshold)
	}
	if cfg.Beat.MinBeatInterval != 0.35 {
		t.Errorf("interval = %g, want 0.35", cfg.Beat.MinBeatInterval)
	}
	if cfg.Flight.BatteryFloor != 25 {
		t.Errorf("battery floor = %d, want 25", cfg.Flight.BatteryFloor)
	}
	if !cfg.Monitor.Enabled || cfg.Monitor.Addr != ":9000" {
		t.Errorf("monitor = %+v", cfg.Monitor)
	}

	// Untouched fields keep their defaults.
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames per buffer = %d, want default %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
	if cfg.Beat.Smoothing != DefaultSmoothing {
		t.Errorf("smoothing = %g, want default %g", cfg.Beat.Smoothing, DefaultSmoothing)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadImplicitMissingFileOK(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Mode != ModeSimulated {
		t.Errorf("mode = %q, want default %q", cfg.Mode, ModeSimulated)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRONEBEAT_MODE", "real")
	t.Setenv("DRONEBEAT_ENERGY_THRESHOLD", "0.2")
	t.Setenv("DRONEBEAT_BATTERY_FLOOR", "30")
	t.Setenv("DRONEBEAT_MONITOR", "true")
	t.Setenv("DRONEBEAT_MQTT_BROKER", "tcp://broker.local:1883")

	cfg := Default()
	applyEnv(cfg)

	if cfg.Mode != ModeReal {
		t.Errorf("mode = %q, want real", cfg.Mode)
	}
	if cfg.Beat.EnergyThreshold != 0.2 {
		t.Errorf("threshold = %g, want 0.2", cfg.Beat.EnergyThreshold)
	}
	if cfg.Flight.BatteryFloor != 30 {
		t.Errorf("battery floor = %d, want 30", cfg.Flight.BatteryFloor)
	}
	if !cfg.Monitor.Enabled {
		t.Error("monitor should be enabled")
	}
	if cfg.Telemetry.Broker != "tcp://broker.local:1883" {
		t.Errorf("broker = %q", cfg.Telemetry.Broker)
	}
}

func TestEnvOverrideBadValueKept(t *testing.T) {
	t.Setenv("DRONEBEAT_SAMPLE_RATE", "loud")

	cfg := Default()
	applyEnv(cfg)

	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %g, want default %g after bad env value", cfg.Audio.SampleRate, DefaultSampleRate)
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(0.2); got.Milliseconds() != 200 {
		t.Errorf("Seconds(0.2) = %v, want 200ms", got)
	}
}
