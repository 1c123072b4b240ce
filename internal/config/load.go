// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	applog "dronebeat/internal/log"
)

// DefaultConfigFile is consulted when no --config flag is given.
const DefaultConfigFile = "dronebeat.yaml"

const envPrefix = "DRONEBEAT_"

// Load builds a Config from the layered sources below the flag layer:
// defaults, then the YAML file, then .env, then DRONEBEAT_* variables.
// An explicit path that does not exist is an error; the implicit
// default file is optional. The result is not yet validated, since
// flags may still override fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := loadYAML(cfg, path, explicit); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path

	if err := godotenv.Load(); err == nil {
		applog.Debugf("loaded environment from .env")
	}
	applyEnv(cfg)

	return cfg, nil
}

func loadYAML(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	applog.Debugf("loaded config from %s", path)
	return nil
}

func applyEnv(cfg *Config) {
	envBool("DEBUG", &cfg.Debug)
	envStr("LOG_LEVEL", &cfg.LogLevel)
	envStr("MODE", &cfg.Mode)

	envInt("DEVICE_ID", &cfg.Audio.DeviceID)
	envFloat("SAMPLE_RATE", &cfg.Audio.SampleRate)
	envInt("FRAMES_PER_BUFFER", &cfg.Audio.FramesPerBuffer)
	envInt("CHANNELS", &cfg.Audio.Channels)

	envFloat("ENERGY_THRESHOLD", &cfg.Beat.EnergyThreshold)
	envFloat("MIN_BEAT_INTERVAL", &cfg.Beat.MinBeatInterval)
	envFloat("SMOOTHING", &cfg.Beat.Smoothing)
	envBool("CALIBRATE", &cfg.Beat.Calibrate)
	envInt("CALIBRATE_BLOCKS", &cfg.Beat.CalibrateBlocks)

	envInt("BATTERY_FLOOR", &cfg.Flight.BatteryFloor)
	envFloat("SETTLE_DELAY", &cfg.Flight.SettleDelay)
	envStr("DRONE_ADDR", &cfg.Flight.DroneAddr)
	envInt("STATE_PORT", &cfg.Flight.StatePort)
	envInt64("SEED", &cfg.Flight.Seed)

	envBool("MONITOR", &cfg.Monitor.Enabled)
	envStr("MONITOR_ADDR", &cfg.Monitor.Addr)

	envBool("TELEMETRY", &cfg.Telemetry.Enabled)
	envStr("MQTT_BROKER", &cfg.Telemetry.Broker)
	envStr("MQTT_CLIENT_ID", &cfg.Telemetry.ClientID)
	envStr("MQTT_USERNAME", &cfg.Telemetry.Username)
	envStr("MQTT_PASSWORD", &cfg.Telemetry.Password)
	envStr("MQTT_TOPIC_ROOT", &cfg.Telemetry.TopicRoot)
}

// Env setters overwrite only when the variable is present. Unparseable
// values keep the layered value and log a warning, so a typo in the
// environment cannot silently zero a field.

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		applog.Warnf("ignoring %s%s=%q: %v", envPrefix, key, v, err)
		return
	}
	*dst = b
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		applog.Warnf("ignoring %s%s=%q: %v", envPrefix, key, v, err)
		return
	}
	*dst = n
}

func envInt64(key string, dst *int64) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		applog.Warnf("ignoring %s%s=%q: %v", envPrefix, key, v, err)
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		applog.Warnf("ignoring %s%s=%q: %v", envPrefix, key, v, err)
		return
	}
	*dst = f
}
