// SPDX-License-Identifier: MIT
/*
Package tuner is the consumer side of the tuner. It waits for full windows
from the capture pair, runs them through the period detector and, once per
stability cycle, maps the frequency to a note and updates the displays.

Thread Safety:
  - Run and Poll must be called from a single goroutine
  - Stats and Reference may be read from any goroutine
  - The processing pass does not allocate
*/
package tuner

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"tuner/internal/capture"
	"tuner/internal/config"
	"tuner/internal/display"
	"tuner/internal/input"
	applog "tuner/internal/log"
	"tuner/internal/note"
	"tuner/internal/pitch"
	"tuner/internal/spectrum"
)

// ReferenceStep is the reference pitch change per button press, in Hz.
const ReferenceStep = 1.0

// spectralMinFrequency is the lowest frequency the FFT cross-check reports.
const spectralMinFrequency = 20.0

// WindowWriter receives every window handed to the consumer.
type WindowWriter interface {
	Write(window []capture.Sample) error
}

// Estimate is one completed stability cycle.
type Estimate struct {
	Frequency     float64 // Hz
	AveragePeriod float64 // samples
	Reference     float64 // Hz
	Note          int     // piano key index, 49 is the reference
	Name          string
	Octave        int
	Target        float64 // Hz of the nearest note at the current reference
	ToneNumber    float64
	Offset        float64 // meter position
	Cents         float64
	Spectral      float64 // FFT peak of the last window, 0 when disabled
}

// Stats counts what happened to the windows the engine saw.
type Stats struct {
	Windows   uint64
	Accepted  uint64
	Transient uint64
	Flat      uint64
	NoPeriods uint64
	Unstable  uint64
	Estimates uint64
	capture.Stats
}

type counters struct {
	windows   atomic.Uint64
	accepted  atomic.Uint64
	transient atomic.Uint64
	flat      atomic.Uint64
	noPeriods atomic.Uint64
	unstable  atomic.Uint64
	estimates atomic.Uint64
}

// Engine drives the pitch pipeline from the consumer end of a capture pair.
type Engine struct {
	consumer     *capture.Consumer
	detector     *pitch.Detector
	analyzer     *spectrum.Analyzer
	display      display.Display
	displayWidth int

	// Reference pitch in Hz, stored as float64 bits.
	reference atomic.Uint64
	measured  float64

	buttons    input.Buttons
	up, down   *input.Button
	buttonPoll time.Duration

	recorder   WindowWriter
	onEstimate func(Estimate)

	stats counters
}

// NewEngine builds an engine from cfg. disp receives every update.
func NewEngine(cfg *config.Config, consumer *capture.Consumer, disp display.Display) (*Engine, error) {
	if consumer == nil {
		return nil, fmt.Errorf("tuner: consumer cannot be nil")
	}
	if disp == nil {
		disp = display.Fanout(nil)
	}

	e := &Engine{
		consumer:     consumer,
		detector:     pitch.NewDetector(cfg.Params()),
		display:      disp,
		displayWidth: cfg.Tuner.DisplayWidth,
		up:           input.NewButton(cfg.Tuner.DebouncePolls),
		down:         input.NewButton(cfg.Tuner.DebouncePolls),
		buttonPoll:   cfg.Tuner.ButtonPoll,
	}
	e.setReference(cfg.Tuner.ReferencePitch)

	if cfg.Pitch.SpectralCheck {
		wf, err := spectrum.ParseWindowFunc(cfg.Pitch.SpectralWindow)
		if err != nil {
			return nil, err
		}
		e.analyzer, err = spectrum.NewAnalyzer(capture.SmpPoints, cfg.EffectiveSampleRate(), spectralMinFrequency, wf)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SetButtons attaches the reference pitch buttons. Run polls them every
// button poll interval.
func (e *Engine) SetButtons(b input.Buttons) { e.buttons = b }

// SetRecorder attaches a writer that receives every window.
func (e *Engine) SetRecorder(w WindowWriter) { e.recorder = w }

// OnEstimate registers a callback invoked after each estimate is displayed.
func (e *Engine) OnEstimate(fn func(Estimate)) { e.onEstimate = fn }

// Reference returns the current reference pitch in Hz.
func (e *Engine) Reference() float64 {
	return math.Float64frombits(e.reference.Load())
}

func (e *Engine) setReference(hz float64) {
	e.reference.Store(math.Float64bits(hz))
}

// Detector exposes the pitch detector.
func (e *Engine) Detector() *pitch.Detector { return e.detector }

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Windows:   e.stats.windows.Load(),
		Accepted:  e.stats.accepted.Load(),
		Transient: e.stats.transient.Load(),
		Flat:      e.stats.flat.Load(),
		NoPeriods: e.stats.noPeriods.Load(),
		Unstable:  e.stats.unstable.Load(),
		Estimates: e.stats.estimates.Load(),
		Stats:     e.consumer.Stats(),
	}
}

// Run shows the boot reference and then processes windows until ctx is
// done.
func (e *Engine) Run(ctx context.Context) error {
	e.display.ShowFrequency(0, e.Reference())

	var tick <-chan time.Time
	if e.buttons != nil && e.buttonPoll > 0 {
		ticker := time.NewTicker(e.buttonPoll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.consumer.Ready():
			e.Poll()
		case <-tick:
			e.ScanButtons()
		}
	}
}

// Poll processes the pending window, if any, and releases it. It reports
// whether a window was processed.
func (e *Engine) Poll() bool {
	window, ok := e.consumer.Window()
	if !ok {
		return false
	}
	e.process(window)
	e.consumer.Release()
	return true
}

// Feed pushes samples through p on the calling goroutine and processes each
// window as soon as it is handed over, so no window is dropped. It is used
// for offline analysis in place of Run.
func (e *Engine) Feed(p *capture.Producer, samples []capture.Sample) {
	for _, s := range samples {
		if p.Deliver(s) == capture.Swapped {
			e.Poll()
		}
	}
}

func (e *Engine) process(window []capture.Sample) {
	e.stats.windows.Add(1)
	if e.recorder != nil {
		if err := e.recorder.Write(window); err != nil {
			applog.Warnf("Tuner: recording failed, disabling: %v", err)
			e.recorder = nil
		}
	}

	step := e.detector.Process(window)
	switch step.Verdict {
	case pitch.Accepted:
		e.stats.accepted.Add(1)
	case pitch.RejectTransient:
		e.stats.transient.Add(1)
	case pitch.RejectFlat:
		e.stats.flat.Add(1)
	case pitch.RejectNoPeriods:
		e.stats.noPeriods.Add(1)
	case pitch.RejectUnstable:
		e.stats.unstable.Add(1)
	}
	if step.Verdict != pitch.Accepted {
		if applog.Enabled(applog.LevelDebug) {
			applog.Debugf("Tuner: window rejected (%s), spread=%d count=%d",
				step.Verdict, step.Stats.Spread, step.Stats.Count)
		}
		return
	}

	if !step.Done {
		return
	}
	if !step.Ok {
		applog.Warnf("Tuner: stability cycle ended without periods")
		return
	}
	e.publish(step.Result)
}

func (e *Engine) publish(r pitch.Result) {
	applog.Infof("avg: %.2f frequency: %.2f", r.AveragePeriod, r.Frequency)

	ref := e.Reference()
	m, ok := note.Map(ref, r.Frequency, e.displayWidth)
	if !ok {
		applog.Warnf("Tuner: cannot map %.2f Hz to a note", r.Frequency)
		return
	}
	name, octave := note.Name(m.Index)

	est := Estimate{
		Frequency:     r.Frequency,
		AveragePeriod: r.AveragePeriod,
		Reference:     ref,
		Note:          m.Index,
		Name:          name,
		Octave:        octave,
		Target:        note.Frequency(ref, m.Index),
		ToneNumber:    m.ToneNumber,
		Offset:        m.Offset,
		Cents:         m.Cents(),
	}
	if e.analyzer != nil {
		ws := e.detector.Workspace()
		est.Spectral = e.analyzer.Peak(ws.Normalized[:], ws.Mean)
		applog.Debugf("Tuner: spectral peak %.2f Hz", est.Spectral)
		if sd, ok := e.display.(display.SpectralDisplay); ok {
			sd.ShowSpectral(est.Spectral)
		}
	}
	e.stats.estimates.Add(1)
	e.measured = est.Frequency

	e.display.ShowOffset(est.Offset)
	e.display.ShowNote(est.Name, est.Octave)
	e.display.ShowFrequency(est.Frequency, est.Reference)

	if e.onEstimate != nil {
		e.onEstimate(est)
	}
}

// ScanButtons reads the buttons once. Each clean press moves the reference
// by ReferenceStep and redraws the frequency text.
func (e *Engine) ScanButtons() {
	if e.buttons == nil {
		return
	}
	upLevel, downLevel := e.buttons.Levels()

	delta := 0.0
	if e.up.Pressed(upLevel) {
		delta += ReferenceStep
	}
	if e.down.Pressed(downLevel) {
		delta -= ReferenceStep
	}
	if delta == 0 {
		return
	}

	ref := e.Reference() + delta
	e.setReference(ref)
	applog.Infof("Tuner: reference pitch %s", display.FormatReference(ref))
	e.display.ShowFrequency(e.measured, ref)
}
