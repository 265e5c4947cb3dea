// SPDX-License-Identifier: MIT
package pitch

// Core constants for the period detector. The sample rate and calibration
// offset were fitted against the reference converter clock.
const (
	DefaultNominalSampleRate  = 83333.0
	DefaultCalibrationOffset  = 356.0
	DefaultIntensityThreshold = 2048
	DefaultSpreadThreshold    = 100
	DefaultStabilityWindows   = 20

	// NormalizedMax is the top of the normalized dynamic range.
	NormalizedMax = 0x3FFF

	// MaxPeriods bounds the period list of a single window.
	MaxPeriods = 50
)

// Params holds the tunable detector settings.
type Params struct {
	NominalSampleRate  float64 // Converter rate in Hz before calibration.
	CalibrationOffset  float64 // Subtracted from NominalSampleRate.
	IntensityThreshold int     // Windows with max-min above this are onset transients.
	SpreadThreshold    int     // Max allowed period spread (samples) of an accepted window.
	StabilityWindows   int     // Accepted windows per frequency estimate.
	Hysteresis         Policy  // Edge inflation passes applied to the binary signal.
}

// DefaultParams returns the settings used by the handheld tuner.
func DefaultParams() Params {
	return Params{
		NominalSampleRate:  DefaultNominalSampleRate,
		CalibrationOffset:  DefaultCalibrationOffset,
		IntensityThreshold: DefaultIntensityThreshold,
		SpreadThreshold:    DefaultSpreadThreshold,
		StabilityWindows:   DefaultStabilityWindows,
		Hysteresis:         DefaultPolicy(),
	}
}

// EffectiveSampleRate is the calibrated sample rate used to turn periods
// into frequencies.
func (p Params) EffectiveSampleRate() float64 {
	return p.NominalSampleRate - p.CalibrationOffset
}

// Verdict classifies what happened to one window.
type Verdict uint8

const (
	Accepted        Verdict = iota
	RejectTransient         // amplitude range above the intensity threshold
	RejectFlat              // max == min, nothing to scale
	RejectNoPeriods         // fewer than two rising edges
	RejectUnstable          // period spread above the threshold
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectTransient:
		return "transient"
	case RejectFlat:
		return "flat"
	case RejectNoPeriods:
		return "no-periods"
	case RejectUnstable:
		return "unstable"
	default:
		return "unknown"
	}
}
