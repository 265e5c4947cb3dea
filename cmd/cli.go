// SPDX-License-Identifier: MIT
package cmd

import (
	"tuner/internal/config"
	"tuner/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagValues holds the raw command line values. Only flags the user set are
// applied on top of the loaded configuration.
type flagValues struct {
	configPath string
	source     string
	device     int
	file       string
	loop       bool
	tone       float64
	reference  float64
	logLevel   string
	record     bool
	recordDir  string
	noTUI      bool
	verbose    bool
	websocket  string
	udp        string
	pick       bool
}

// ParseArgs builds the configuration from defaults, the config file,
// environment and the command line. It returns a nil config when cobra
// handled the invocation itself (--help, --version).
func ParseArgs(args []string) (*config.Config, error) {
	info := build.Get()
	var (
		f   flagValues
		cfg *config.Config
	)

	load := func(cmd *cobra.Command, adjust func(*config.Config)) error {
		c, err := config.LoadConfig(f.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd.Flags(), &f, c)
		if adjust != nil {
			adjust(c)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       info.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, nil)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, func(c *config.Config) {
				c.Command = config.CommandList
				if f.pick {
					c.Command = config.CommandPick
				}
			})
		},
	}
	listCmd.Flags().BoolVarP(&f.pick, "interactive", "i", false,
		"Pick a device interactively and print its ID")
	rootCmd.AddCommand(listCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Run a WAV recording through the detector and print each estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, func(c *config.Config) {
				c.Command = config.CommandAnalyze
				c.Source.Kind = config.SourceWAV
				c.Source.File = args[0]
				c.Tuner.TUI = false
			})
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	pf := rootCmd.PersistentFlags()

	// Configuration
	pf.StringVarP(&f.configPath, "config", "c", "",
		"Path to a YAML config file (default: ./config.yaml or ./tuner.yaml if present)")
	pf.StringVarP(&f.logLevel, "log-level", "L", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	pf.BoolVarP(&f.verbose, "verbose", "v", false,
		"Shorthand for --log-level debug")

	// Sample source
	pf.StringVarP(&f.source, "source", "s", config.DefaultSource,
		"Sample source: mic, wav or tone")
	pf.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Input device ID for the mic source. Use 'list' to see available devices.")
	pf.StringVarP(&f.file, "file", "f", "",
		"WAV file for the wav source")
	pf.BoolVar(&f.loop, "loop", false,
		"Restart the WAV file when it ends")
	pf.Float64Var(&f.tone, "tone", config.DefaultToneFrequency,
		"Frequency in Hz of the tone source")

	// Tuner
	pf.Float64VarP(&f.reference, "reference", "r", config.DefaultReferencePitch,
		"Reference pitch for A4 in Hz")
	pf.BoolVar(&f.noTUI, "no-tui", false,
		"Log estimates instead of drawing the terminal meter")

	// Recording
	pf.BoolVar(&f.record, "record", false,
		"Record every analysis window to a WAV file")
	pf.StringVar(&f.recordDir, "record-dir", config.DefaultRecordingDir,
		"Directory for recordings")

	// Transport
	pf.StringVar(&f.websocket, "ws", "",
		"Serve readings over WebSocket on this address, e.g. :8080")
	pf.StringVar(&f.udp, "udp", "",
		"Send reading packets over UDP to this host:port")

	// cobra falls back to os.Args for a nil slice.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies the flags the user set into cfg.
func applyFlags(fs *pflag.FlagSet, f *flagValues, cfg *config.Config) {
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if fs.Changed("source") {
		cfg.Source.Kind = f.source
	}
	if fs.Changed("device") {
		cfg.Source.InputDevice = f.device
	}
	if fs.Changed("file") {
		cfg.Source.File = f.file
		if !fs.Changed("source") {
			cfg.Source.Kind = config.SourceWAV
		}
	}
	if fs.Changed("loop") {
		cfg.Source.Loop = f.loop
	}
	if fs.Changed("tone") {
		cfg.Source.ToneFrequency = f.tone
		if !fs.Changed("source") {
			cfg.Source.Kind = config.SourceTone
		}
	}
	if fs.Changed("reference") {
		cfg.Tuner.ReferencePitch = f.reference
	}
	if f.noTUI {
		cfg.Tuner.TUI = false
	}
	if fs.Changed("record") {
		cfg.Recording.Enabled = f.record
	}
	if fs.Changed("record-dir") {
		cfg.Recording.OutputDir = f.recordDir
	}
	if f.websocket != "" {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = f.websocket
	}
	if f.udp != "" {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = f.udp
	}
}
