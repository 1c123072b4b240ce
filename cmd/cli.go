package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dronebeat/internal/config"
	"dronebeat/pkg/build"
)

// Command names ParseArgs routes back to main.
const (
	CommandDance   = "dance"
	CommandDevices = "devices"
	CommandMoves   = "moves"
	CommandVersion = "version"
)

// ParseArgs builds the layered configuration and parses the command
// line on top of it: defaults, config file, environment, then flags.
// The returned Command names what to run; it is empty when cobra
// already handled the invocation itself (help output, usage errors).
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	// The config file has to be loaded before flag registration, since
	// flag defaults come from it. A bare pre-scan finds --config
	// without disturbing cobra's parsing.
	options, err := config.Load(configPathFromArgs(os.Args[1:]))
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Makes a Tello drone dance to the beat of live music",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandDance
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandDevices
		},
	}
	devicesCmd.Flags().BoolVarP(&options.Interactive, "interactive", "i", false,
		"Browse devices in an interactive terminal UI")
	rootCmd.AddCommand(devicesCmd)

	// Moves command
	movesCmd := &cobra.Command{
		Use:   "moves",
		Short: "Print the dance move catalogs",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandMoves
		},
	}
	rootCmd.AddCommand(movesCmd)

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandVersion
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Audio Capture Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Audio.DeviceID, "device", "d", options.Audio.DeviceID,
		"Input device ID. Use the 'devices' command to see what is available.")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.Channels, "channels", "c", options.Audio.Channels,
		"Number of input channels (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")

	rootCmd.PersistentFlags().IntVarP(&options.Audio.FramesPerBuffer, "frames-per-buffer", "b", options.Audio.FramesPerBuffer,
		"The number of samples per capture block (affects beat latency)")
	rootCmd.PersistentFlags().BoolVarP(&options.Audio.LowLatency, "low-latency", "l", options.Audio.LowLatency,
		"Use the device's low-latency capture profile")

	// Performance Configuration
	rootCmd.PersistentFlags().StringVarP(&options.Mode, "mode", "m", options.Mode,
		"Actuator backend: simulated or real")
	rootCmd.PersistentFlags().Float64VarP(&options.Beat.EnergyThreshold, "threshold", "t", options.Beat.EnergyThreshold,
		"Relative energy rise over the baseline that counts as a beat")
	rootCmd.PersistentFlags().Float64Var(&options.Beat.MinBeatInterval, "interval", options.Beat.MinBeatInterval,
		"Minimum seconds between two beats")
	rootCmd.PersistentFlags().BoolVar(&options.Beat.Calibrate, "calibrate", options.Beat.Calibrate,
		"Measure the room's noise floor before dancing")
	rootCmd.PersistentFlags().Int64Var(&options.Flight.Seed, "seed", options.Flight.Seed,
		"Move selection seed; 0 seeds from the clock")

	// Observability Configuration
	rootCmd.PersistentFlags().BoolVar(&options.Monitor.Enabled, "monitor", options.Monitor.Enabled,
		"Serve session events over websocket for live dashboards")
	rootCmd.PersistentFlags().StringVar(&options.Monitor.Addr, "monitor-addr", options.Monitor.Addr,
		"Monitor listen address")
	rootCmd.PersistentFlags().BoolVar(&options.Telemetry.Enabled, "telemetry", options.Telemetry.Enabled,
		"Publish session events to the configured MQTT broker")

	// Debug Configuration
	rootCmd.PersistentFlags().StringVar(&options.ConfigFile, "config", options.ConfigFile,
		"Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// configPathFromArgs scans for --config ahead of cobra. Only the two
// spellings cobra itself accepts are recognized.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
