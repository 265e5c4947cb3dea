// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	applog "tuner/internal/log"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml", "tuner.yaml"). If no file is found, it
// uses built-in defaults. After loading defaults or from file, it applies environment
// variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range []string{"config.yaml", "tuner.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and cross-field constraints. Every error wraps
// ErrInvalid.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}

	switch c.Source.Kind {
	case SourceMic, SourceTone:
	case SourceWAV:
		if c.Source.File == "" {
			return fmt.Errorf("%w: source.file must be set for the wav source", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", ErrInvalid, c.Source.Kind)
	}
	if c.Source.InputDevice < MinDeviceID {
		return fmt.Errorf("%w: source.input_device %d", ErrInvalid, c.Source.InputDevice)
	}
	if c.Source.InputChannels < 1 {
		return fmt.Errorf("%w: source.input_channels must be at least 1", ErrInvalid)
	}
	if c.Source.FramesPerBuffer < 1 {
		return fmt.Errorf("%w: source.frames_per_buffer must be positive", ErrInvalid)
	}
	if c.Source.Kind == SourceTone && c.Source.ToneFrequency <= 0 {
		return fmt.Errorf("%w: source.tone_frequency must be positive", ErrInvalid)
	}

	p := c.Pitch
	if p.SampleRate < MinSampleRate || p.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: pitch.sample_rate %.0f outside [%d, %d]", ErrInvalid, p.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if p.CalibrationOffset < 0 || p.CalibrationOffset >= p.SampleRate {
		return fmt.Errorf("%w: pitch.calibration_offset %.1f", ErrInvalid, p.CalibrationOffset)
	}
	if p.IntensityThreshold <= 0 {
		return fmt.Errorf("%w: pitch.intensity_threshold must be positive", ErrInvalid)
	}
	if p.SpreadThreshold < 0 {
		return fmt.Errorf("%w: pitch.spread_threshold must not be negative", ErrInvalid)
	}
	if p.StabilityWindows < 1 {
		return fmt.Errorf("%w: pitch.stability_windows must be at least 1", ErrInvalid)
	}
	for i, pass := range p.Hysteresis {
		if pass.Target > 1 {
			return fmt.Errorf("%w: pitch.hysteresis[%d].target must be 0 or 1", ErrInvalid, i)
		}
		if pass.Count < 0 {
			return fmt.Errorf("%w: pitch.hysteresis[%d].count must not be negative", ErrInvalid, i)
		}
	}

	if c.Tuner.ReferencePitch < MinReferencePitch || c.Tuner.ReferencePitch > MaxReferencePitch {
		return fmt.Errorf("%w: tuner.reference_pitch %.1f outside [%.0f, %.0f]", ErrInvalid,
			c.Tuner.ReferencePitch, MinReferencePitch, MaxReferencePitch)
	}
	if c.Tuner.DisplayWidth < MinDisplayWidth {
		return fmt.Errorf("%w: tuner.display_width must be at least %d", ErrInvalid, MinDisplayWidth)
	}
	if c.Tuner.DebouncePolls < 1 {
		return fmt.Errorf("%w: tuner.debounce_polls must be at least 1", ErrInvalid)
	}
	if c.Tuner.ButtonPoll <= 0 {
		return fmt.Errorf("%w: tuner.button_poll must be positive", ErrInvalid)
	}

	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		return fmt.Errorf("%w: transport.websocket_address must be set when WebSocket is enabled", ErrInvalid)
	}
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return fmt.Errorf("%w: transport.udp_target_address '%s' appears invalid (missing port?)", ErrInvalid, t.UDPTargetAddress)
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive when UDP is enabled", ErrInvalid)
		}
	}

	if c.Recording.Enabled && c.Recording.OutputDir == "" {
		return fmt.Errorf("%w: recording.output_dir must be set when recording is enabled", ErrInvalid)
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			if bVal {
				cfg.LogLevel = "debug"
			}
			applog.Infof("configuration: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("configuration: Overriding log_level from env: %s", val)
	}
	// ENV_SOURCE
	if val, ok := os.LookupEnv("ENV_SOURCE"); ok {
		cfg.Source.Kind = val
		applog.Infof("configuration: Overriding source.kind from env: %s", val)
	}
	// ENV_REFERENCE_PITCH
	if val, ok := os.LookupEnv("ENV_REFERENCE_PITCH"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Tuner.ReferencePitch = fVal
			applog.Infof("configuration: Overriding tuner.reference_pitch from env: %.1f", fVal)
		}
	}

	// ENV_WS_{...}

	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
			applog.Infof("configuration: Overriding transport.websocket_enabled from env: %v", bVal)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
		applog.Infof("configuration: Overriding transport.websocket_address from env: %s", val)
	}

	// ENV_UDP_{...}

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Infof("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Infof("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}
}
