package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"

	"dronebeat/cmd"
	"dronebeat/internal/actuator"
	"dronebeat/internal/actuator/tello"
	"dronebeat/internal/analysis"
	"dronebeat/internal/audio"
	"dronebeat/internal/config"
	"dronebeat/internal/dance"
	applog "dronebeat/internal/log"
	"dronebeat/internal/moves"
	"dronebeat/internal/transport"
	"dronebeat/internal/tui"
	"dronebeat/pkg/build"
)

// main is the entry point for the drone dance session.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Initialize PortAudio
//   - Parse command line arguments over the layered configuration
//   - Execute one-off commands if requested
//
// 2. Performance Phase (Hot Path):
//   - Connect the actuator and take off
//   - Capture audio and detect beats
//   - Dispatch one move per beat until the operator stops the music
//
// 3. Shutdown Phase (Cold Path):
//   - Land, whatever happened
//   - Tear down event transports
//   - Report capture statistics
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Resolve build information stamped by -ldflags, if any.
	build.Initialize()

	// Limit OS threads to the workload's shape:
	// - One thread dedicated to the PortAudio callback (time-critical)
	// - One thread for dispatch, actuation and I/O
	runtime.GOMAXPROCS(2)

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	// Parse command line arguments on top of the layered configuration
	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// Cobra already produced output (help, completion) and there is
	// nothing to run.
	if cfg.Command == "" {
		return
	}

	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	// Handle one-off commands (device listing, catalogs) that don't
	// need the capture pipeline or a drone
	if cfg.Command != cmd.CommandDance {
		if err := executeCommand(cfg); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		applog.Fatalf("%v", err)
	}

	if err := run(cfg); err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}

// executeCommand handles one-off commands that don't require the
// capture pipeline, such as listing audio devices.
func executeCommand(cfg *config.Config) error {
	switch cfg.Command {
	case cmd.CommandDevices:
		if cfg.Interactive {
			return tui.StartDeviceBrowser()
		}
		return audio.ListDevices()
	case cmd.CommandMoves:
		return printMoves()
	case cmd.CommandVersion:
		info := build.GetBuildFlags()
		fmt.Printf("%s %s (commit %s, built %s)\n", info.Name, info.Version, info.Commit, info.Time)
		return nil
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}

// run assembles the session and performs it until a signal or a fault
// ends it.
func run(cfg *config.Config) error {
	session := uuid.NewString()[:8]
	info := build.GetBuildFlags()
	applog.Infof("%s %s starting session %s in %s mode", info.Name, info.Version, session, cfg.Mode)

	// Event sinks. The debug transport always rides along; it only
	// speaks at debug level.
	sinks := []transport.Transport{transport.NewDebugTransport()}
	if cfg.Monitor.Enabled {
		hub := transport.NewHub(cfg.Monitor.Addr)
		if err := hub.Start(); err != nil {
			return err
		}
		sinks = append(sinks, hub)
	}
	if cfg.Telemetry.Enabled {
		publisher, err := transport.NewMQTTPublisher(transport.MQTTConfig{
			Broker:    cfg.Telemetry.Broker,
			ClientID:  cfg.Telemetry.ClientID,
			Username:  cfg.Telemetry.Username,
			Password:  cfg.Telemetry.Password,
			TopicRoot: cfg.Telemetry.TopicRoot,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, publisher)
	}
	fanout := transport.NewFanout(sinks...)
	defer fanout.Close()

	// ==================== PERFORMANCE PHASE (Hot Path) ====================

	engine, err := audio.NewEngine(cfg)
	if err != nil {
		return err
	}

	detector, err := analysis.NewDetector(analysis.DetectorConfig{
		EnergyThreshold: cfg.Beat.EnergyThreshold,
		MinBeatInterval: config.Seconds(cfg.Beat.MinBeatInterval),
		Smoothing:       cfg.Beat.Smoothing,
		BaselineFloor:   cfg.Beat.BaselineFloor,
	})
	if err != nil {
		return err
	}

	// The spectrum tap runs only when the monitor is on.
	var taps []analysis.BlockProcessor
	if cfg.Monitor.Enabled {
		spectrum, err := analysis.NewSpectrum(analysis.SpectrumConfig{
			Size:         cfg.Monitor.SpectrumSize,
			SampleRate:   cfg.Audio.SampleRate,
			Window:       analysis.Hann,
			EmitInterval: config.Seconds(cfg.Monitor.EmitInterval),
			Session:      session,
		}, fanout)
		if err != nil {
			return err
		}
		taps = append(taps, spectrum)
	}

	mode := moves.Simulated
	var act actuator.Actuator
	if cfg.Mode == config.ModeReal {
		mode = moves.Real
		act = tello.NewDriver(tello.Config{
			Addr:           cfg.Flight.DroneAddr,
			StateAddr:      fmt.Sprintf(":%d", cfg.Flight.StatePort),
			CommandTimeout: config.Seconds(cfg.Flight.CommandTimeout),
			MoveTimeout:    config.Seconds(cfg.Flight.MoveTimeout),
			BatteryFloor:   cfg.Flight.BatteryFloor,
		})
	} else {
		act = actuator.NewSimulator()
	}

	library := moves.DefaultLibrary(moves.NewRandomSelector(cfg.Flight.Seed))

	calibrateBlocks := 0
	if cfg.Beat.Calibrate {
		calibrateBlocks = cfg.Beat.CalibrateBlocks
	}

	orchestrator, err := dance.New(dance.Config{
		Mode:            mode,
		BlockTimeout:    config.Seconds(cfg.Audio.BlockTimeout),
		SettleDelay:     config.Seconds(cfg.Flight.SettleDelay),
		CalibrateBlocks: calibrateBlocks,
		EmitInterval:    config.Seconds(cfg.Monitor.EmitInterval),
		BatteryPoll:     config.Seconds(cfg.Flight.BatteryPoll),
		Session:         session,
	}, engine, act, library, detector, fanout, taps...)
	if err != nil {
		return err
	}

	// Ctrl-C and SIGTERM cancel the run; the orchestrator lands before
	// Run returns.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = orchestrator.Run(ctx)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if dropped := engine.Dropped(); dropped > 0 {
		applog.Warnf("capture dropped %d blocks while the loop was busy", dropped)
	}
	return err
}

// printMoves lists both move catalogs in dispatch order.
func printMoves() error {
	library := moves.DefaultLibrary(nil)

	for _, mode := range []moves.Mode{moves.Simulated, moves.Real} {
		fmt.Printf("\n%s moves\n\n", mode)
		for _, m := range library.Catalog(mode) {
			if m.Duration > 0 {
				fmt.Printf("  %-16s %s %-4d (%v)\n", m.Name, m.Action, m.Param, m.Duration)
			} else {
				fmt.Printf("  %-16s %s %d\n", m.Name, m.Action, m.Param)
			}
		}
	}
	fmt.Println()
	return nil
}
