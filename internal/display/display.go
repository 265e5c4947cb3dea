// SPDX-License-Identifier: MIT
//
// Package display defines the output side of the tuner: where the needle
// sits, which note was detected and the measured and reference frequencies.
package display

import (
	"fmt"
	"sync"
	"time"

	applog "tuner/internal/log"
	"tuner/internal/transport"
)

// Display receives tuner output. Calls come from the engine goroutine, one
// at a time.
type Display interface {
	ShowOffset(offset float64)
	ShowNote(name string, octave int)
	ShowFrequency(measured, reference float64)
}

// SpectralDisplay is implemented by displays that also show the FFT
// cross-check of an estimate.
type SpectralDisplay interface {
	ShowSpectral(hz float64)
}

// Fanout forwards every call to each display in order.
type Fanout []Display

func (f Fanout) ShowOffset(offset float64) {
	for _, d := range f {
		d.ShowOffset(offset)
	}
}

func (f Fanout) ShowNote(name string, octave int) {
	for _, d := range f {
		d.ShowNote(name, octave)
	}
}

func (f Fanout) ShowFrequency(measured, reference float64) {
	for _, d := range f {
		d.ShowFrequency(measured, reference)
	}
}

// ShowSpectral forwards to the members that implement SpectralDisplay.
func (f Fanout) ShowSpectral(hz float64) {
	for _, d := range f {
		if s, ok := d.(SpectralDisplay); ok {
			s.ShowSpectral(hz)
		}
	}
}

// Log writes display updates to the application log.
type Log struct{}

func (Log) ShowOffset(offset float64) {
	applog.Debugf("Display: offset %.1f", offset)
}

func (Log) ShowNote(name string, octave int) {
	applog.Infof("Display: note %s%d", name, octave)
}

func (Log) ShowFrequency(measured, reference float64) {
	applog.Infof("Display: %s (ref %s)", FormatMeasured(measured), FormatReference(reference))
}

// FormatMeasured renders a measured frequency with two decimals.
func FormatMeasured(hz float64) string { return fmt.Sprintf("%.2f Hz", hz) }

// FormatReference renders the reference pitch as a whole number of hertz.
func FormatReference(hz float64) string { return fmt.Sprintf("%.0f Hz", hz) }

// Transport gathers the three display calls into one transport.Reading and
// sends the updated reading after each call.
type Transport struct {
	mu  sync.Mutex
	t   transport.Transport
	cur transport.Reading
	now func() time.Time
}

// NewTransport wraps t.
func NewTransport(t transport.Transport) *Transport {
	return &Transport{t: t, now: time.Now}
}

// Reading returns the current accumulated reading.
func (d *Transport) Reading() transport.Reading {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur
}

// ShowSpectral attaches the spectral cross-check to the next reading
// without sending.
func (d *Transport) ShowSpectral(hz float64) {
	d.mu.Lock()
	d.cur.Spectral = hz
	d.mu.Unlock()
}

func (d *Transport) ShowOffset(offset float64) {
	d.update(func(r *transport.Reading) { r.Offset = offset })
}

func (d *Transport) ShowNote(name string, octave int) {
	d.update(func(r *transport.Reading) { r.Note, r.Octave = name, octave })
}

func (d *Transport) ShowFrequency(measured, reference float64) {
	d.update(func(r *transport.Reading) { r.Measured, r.Reference = measured, reference })
}

func (d *Transport) update(fn func(*transport.Reading)) {
	d.mu.Lock()
	fn(&d.cur)
	d.cur.Timestamp = d.now()
	r := d.cur
	d.mu.Unlock()

	if err := d.t.Send(r); err != nil {
		applog.Debugf("Display: transport send failed: %v", err)
	}
}

var (
	_ Display = Fanout(nil)
	_ Display = Log{}
	_ Display = (*Transport)(nil)

	_ SpectralDisplay = Fanout(nil)
	_ SpectralDisplay = (*Transport)(nil)
)
