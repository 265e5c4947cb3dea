// SPDX-License-Identifier: MIT
package pitch

// Accumulator aggregates period statistics of accepted windows until a
// stability count is reached.
type Accumulator struct {
	Sum     int // summed periods, samples
	Count   int // number of periods
	Windows int // accepted windows in this cycle

	spreadThreshold  int
	stabilityWindows int
	sampleRate       float64
}

// Result is one frequency estimate.
type Result struct {
	AveragePeriod float64 // samples
	Frequency     float64 // Hz
}

// NewAccumulator returns an empty accumulator configured from p.
func NewAccumulator(p Params) *Accumulator {
	return &Accumulator{
		spreadThreshold:  p.SpreadThreshold,
		stabilityWindows: p.StabilityWindows,
		sampleRate:       p.EffectiveSampleRate(),
	}
}

// Add folds one window into the accumulator. Windows without periods or with
// a spread above the threshold are discarded whole. The returned bool is true
// once the stability count is reached and Estimate should be called.
func (a *Accumulator) Add(st PeriodStats) (Verdict, bool) {
	if st.Count == 0 {
		return RejectNoPeriods, false
	}
	if st.Spread > a.spreadThreshold {
		return RejectUnstable, false
	}

	a.Sum += st.Sum
	a.Count += st.Count
	a.Windows++
	return Accepted, a.Windows >= a.stabilityWindows
}

// Estimate converts the accumulated periods to a frequency and resets all
// fields. It returns false when nothing was accumulated.
func (a *Accumulator) Estimate() (Result, bool) {
	sum, count := a.Sum, a.Count
	a.Reset()

	if count == 0 || sum == 0 {
		return Result{}, false
	}
	avg := float64(sum) / float64(count)
	return Result{AveragePeriod: avg, Frequency: a.sampleRate / avg}, true
}

// Reset zeroes the accumulator.
func (a *Accumulator) Reset() {
	a.Sum, a.Count, a.Windows = 0, 0, 0
}
