// SPDX-License-Identifier: MIT
/*
Package pitch turns one window of converter samples into rising-edge period
statistics and aggregates stable windows into a frequency estimate.

Pipeline per window:
  - Normalize: rescale to [0, 0x3FFF], reject onset transients and flat input
  - Binarize: 7-tap moving average against the window mean
  - Policy.Apply: hysteresis passes that suppress short spurious runs
  - ExtractPeriods: rising-edge distances, sum/count/spread
  - Accumulator: windows with a small spread until the stability count

All buffers live in a Workspace allocated once; Process does not allocate.
*/
package pitch

import "tuner/internal/capture"

// Workspace holds the per-window intermediate arrays.
type Workspace struct {
	Normalized [capture.SmpPoints]float64
	Mean       float64
	Binary     [capture.SmpPoints]uint8
	scratch    [capture.SmpPoints]uint8
	Periods    Periods
}

// Step reports what Process did with one window.
type Step struct {
	Verdict Verdict
	Stats   PeriodStats
	Done    bool   // stability count reached on this window
	Result  Result // valid when Done and Ok
	Ok      bool
}

// Detector runs the pipeline and owns the accumulator.
type Detector struct {
	params Params
	ws     Workspace
	acc    *Accumulator
}

// NewDetector allocates a detector and its workspace.
func NewDetector(p Params) *Detector {
	return &Detector{
		params: p,
		acc:    NewAccumulator(p),
	}
}

// Params returns the detector settings.
func (d *Detector) Params() Params { return d.params }

// Workspace exposes the intermediate arrays of the last processed window.
func (d *Detector) Workspace() *Workspace { return &d.ws }

// Accumulator exposes the running accumulator.
func (d *Detector) Accumulator() *Accumulator { return d.acc }

// Process runs one full window through the pipeline. A rejected window never
// mutates the accumulator.
func (d *Detector) Process(window []capture.Sample) Step {
	n := len(window)
	if n > capture.SmpPoints {
		n = capture.SmpPoints
	}
	ws := &d.ws

	mean, v := Normalize(window[:n], ws.Normalized[:n], d.params.IntensityThreshold)
	if v != Accepted {
		return Step{Verdict: v}
	}
	ws.Mean = mean

	Binarize(ws.Normalized[:n], mean, ws.Binary[:n])
	d.params.Hysteresis.Apply(ws.Binary[:n], ws.scratch[:n])
	st := ExtractPeriods(ws.Binary[:n], &ws.Periods)

	v, done := d.acc.Add(st)
	step := Step{Verdict: v, Stats: st, Done: done}
	if done {
		step.Result, step.Ok = d.acc.Estimate()
	}
	return step
}
