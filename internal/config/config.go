// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the tuner engine.
const (
	DefaultLogLevel = "info"

	// Source defaults
	DefaultSource          = SourceMic
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultChannels        = 1           // Mono capture
	DefaultFramesPerBuffer = 256         // Converter callback size
	DefaultLowLatency      = false
	DefaultToneFrequency   = 440.0
	DefaultToneAmplitude   = 800.0

	// Pitch detector defaults, fitted for the reference converter clock
	DefaultSampleRate         = 83333.0
	DefaultCalibrationOffset  = 356.0
	DefaultIntensityThreshold = 2048
	DefaultSpreadThreshold    = 100
	DefaultStabilityWindows   = 20
	DefaultSpectralCheck      = true
	DefaultSpectralWindow     = "Hann"

	// Tuner defaults
	DefaultReferencePitch = 440.0
	DefaultDisplayWidth   = 320
	DefaultDebouncePolls  = 2
	DefaultButtonPoll     = 10 * time.Millisecond
	DefaultTUIMode        = true

	// Recording defaults
	DefaultRecordingDir = "./recordings"

	// Transport defaults
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 100 * time.Millisecond

	// Hardware and processing limits
	MinDeviceID       = -1 // -1 represents system default device
	MinSampleRate     = 8000
	MaxSampleRate     = 192000
	MinReferencePitch = 400.0
	MaxReferencePitch = 480.0
	MinDisplayWidth   = 40
)

// Source kinds.
const (
	SourceMic  = "mic"
	SourceWAV  = "wav"
	SourceTone = "tone"
)

// One-off commands.
const (
	CommandList    = "list"    // print input devices
	CommandPick    = "pick"    // choose an input device interactively
	CommandAnalyze = "analyze" // run a WAV file through the detector
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file"`          // Log destination while the terminal meter runs ("" discards).
	Command   string          `yaml:"command,omitempty"` // One-off command to execute instead of running the tuner.
	Source    SourceConfig    `yaml:"source"`            // Sample producer settings.
	Pitch     PitchConfig     `yaml:"pitch"`             // Period detector settings.
	Tuner     TunerConfig     `yaml:"tuner"`             // Reference pitch and display settings.
	Recording RecordingConfig `yaml:"recording"`         // Raw window capture.
	Transport TransportConfig `yaml:"transport"`         // Network display sinks.
}

// SourceConfig selects and configures the sample producer.
type SourceConfig struct {
	Kind            string  `yaml:"kind"`              // "mic", "wav" or "tone".
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	InputChannels   int     `yaml:"input_channels"`    // Channels opened; channel 0 is analyzed.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio frames per callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the device.
	File            string  `yaml:"file"`              // WAV file for the "wav" source.
	Loop            bool    `yaml:"loop"`              // Restart the WAV file at EOF.
	ToneFrequency   float64 `yaml:"tone_frequency"`    // Frequency of the "tone" source in Hz.
	ToneAmplitude   float64 `yaml:"tone_amplitude"`    // Peak amplitude of the tone in converter counts.
}

// PitchConfig holds the period detector settings.
type PitchConfig struct {
	SampleRate         float64          `yaml:"sample_rate"`         // Nominal converter rate in Hz.
	CalibrationOffset  float64          `yaml:"calibration_offset"`  // Subtracted from sample_rate.
	IntensityThreshold int              `yaml:"intensity_threshold"` // Max window range before a window counts as an onset.
	SpreadThreshold    int              `yaml:"spread_threshold"`    // Max period spread of an accepted window.
	StabilityWindows   int              `yaml:"stability_windows"`   // Accepted windows per estimate.
	Hysteresis         []HysteresisPass `yaml:"hysteresis"`          // Edge inflation passes, in order.
	SpectralCheck      bool             `yaml:"spectral_check"`      // Log an FFT peak next to each estimate.
	SpectralWindow     string           `yaml:"spectral_window"`     // Window function for the FFT check.
}

// HysteresisPass is one entry of the hysteresis policy.
type HysteresisPass struct {
	Target uint8 `yaml:"target"` // Symbol grown by the pass (0 or 1).
	Count  int   `yaml:"count"`  // Number of passes.
}

// TunerConfig holds the reference pitch and display settings.
type TunerConfig struct {
	ReferencePitch float64       `yaml:"reference_pitch"` // Boot value of the reference pitch in Hz.
	DisplayWidth   int           `yaml:"display_width"`   // Meter width in pixels.
	DebouncePolls  int           `yaml:"debounce_polls"`  // Consecutive equal polls for a stable button level.
	ButtonPoll     time.Duration `yaml:"button_poll"`     // Interval between button scans.
	TUI            bool          `yaml:"tui"`             // Run the terminal meter.
}

// RecordingConfig holds settings related to window recording.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record every window handed to the detector.
	OutputDir string `yaml:"output_dir"` // Directory for recorded WAV files.
}

// TransportConfig holds settings related to sending readings over the network.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Broadcast readings as JSON over WebSocket.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for the WebSocket server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary reading packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target "host:port" for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// NewConfig creates a new Config instance with default values.
// This is the base configuration before a config file, environment
// overrides and command line flags are applied.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Source: SourceConfig{
			Kind:            DefaultSource,
			InputDevice:     DefaultDeviceID,
			InputChannels:   DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			ToneFrequency:   DefaultToneFrequency,
			ToneAmplitude:   DefaultToneAmplitude,
		},
		Pitch: PitchConfig{
			SampleRate:         DefaultSampleRate,
			CalibrationOffset:  DefaultCalibrationOffset,
			IntensityThreshold: DefaultIntensityThreshold,
			SpreadThreshold:    DefaultSpreadThreshold,
			StabilityWindows:   DefaultStabilityWindows,
			Hysteresis: []HysteresisPass{
				{Target: 1, Count: 2},
				{Target: 0, Count: 4},
				{Target: 1, Count: 2},
			},
			SpectralCheck:  DefaultSpectralCheck,
			SpectralWindow: DefaultSpectralWindow,
		},
		Tuner: TunerConfig{
			ReferencePitch: DefaultReferencePitch,
			DisplayWidth:   DefaultDisplayWidth,
			DebouncePolls:  DefaultDebouncePolls,
			ButtonPoll:     DefaultButtonPoll,
			TUI:            DefaultTUIMode,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}
