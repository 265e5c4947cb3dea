// SPDX-License-Identifier: MIT
package config

import "tuner/internal/pitch"

// Params converts the pitch section into detector settings.
func (c *Config) Params() pitch.Params {
	policy := make(pitch.Policy, 0, len(c.Pitch.Hysteresis))
	for _, pass := range c.Pitch.Hysteresis {
		policy = append(policy, pitch.Pass{Target: pass.Target, Count: pass.Count})
	}
	return pitch.Params{
		NominalSampleRate:  c.Pitch.SampleRate,
		CalibrationOffset:  c.Pitch.CalibrationOffset,
		IntensityThreshold: c.Pitch.IntensityThreshold,
		SpreadThreshold:    c.Pitch.SpreadThreshold,
		StabilityWindows:   c.Pitch.StabilityWindows,
		Hysteresis:         policy,
	}
}

// EffectiveSampleRate returns the calibrated sample rate in Hz.
func (c *Config) EffectiveSampleRate() float64 {
	return c.Pitch.SampleRate - c.Pitch.CalibrationOffset
}
