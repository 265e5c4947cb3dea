// SPDX-License-Identifier: MIT
//
// Package spectrum provides an FFT cross-check for the period detector. It
// finds the dominant spectral peak of a normalized window so that a period
// estimate locked onto a harmonic can be spotted in the logs.
package spectrum

import (
	"fmt"
	"math/cmplx"
	"strings"

	"tuner/internal/log"
	"tuner/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// WindowFunc selects the analysis window.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
)

// Pre-allocated buffers for FFT calculations.
type workspace struct {
	input     []float64
	fftOutput []complex128
	magnitude []float64
	window    []float64
}

// Analyzer computes the magnitude spectrum of fixed-size windows.
type Analyzer struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64
	minBin     int
	ws         workspace
}

// NewAnalyzer returns an analyzer for windows of size samples taken at
// sampleRate. Peaks below minFreq are ignored.
func NewAnalyzer(size int, sampleRate, minFreq float64, windowType WindowFunc) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d (next is %d)", size, bitint.NextPowerOfTwo(size))
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	bins := size/2 + 1
	minBin := int(minFreq * float64(size) / sampleRate)
	if minBin < 1 {
		minBin = 1
	}
	if minBin >= bins {
		minBin = bins - 1
	}

	log.Debugf("Spectrum: Initializing analyzer (Size: %d, SampleRate: %.1f Hz)", size, sampleRate)

	return &Analyzer{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		minBin:     minBin,
		ws: workspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, bins),
			magnitude: make([]float64, bins),
			window:    coeffs,
		},
	}, nil
}

// Peak returns the frequency of the strongest bin above the minimum,
// refined by parabolic interpolation. The window mean is removed before
// windowing. Shorter input is zero padded.
func (a *Analyzer) Peak(samples []float64, mean float64) float64 {
	n := copy(a.ws.input, samples)
	for i := n; i < a.size; i++ {
		a.ws.input[i] = mean
	}
	floats.AddConst(-mean, a.ws.input)
	floats.Mul(a.ws.input, a.ws.window)

	a.fft.Coefficients(a.ws.fftOutput, a.ws.input)
	for i, c := range a.ws.fftOutput {
		a.ws.magnitude[i] = cmplx.Abs(c)
	}

	mags := a.ws.magnitude
	k := a.minBin + floats.MaxIdx(mags[a.minBin:])
	if mags[k] == 0 {
		return 0
	}

	delta := 0.0
	if k > 0 && k < len(mags)-1 {
		l, c, r := mags[k-1], mags[k], mags[k+1]
		if d := l - 2*c + r; d != 0 {
			delta = 0.5 * (l - r) / d
		}
	}
	return (float64(k) + delta) * a.sampleRate / float64(a.size)
}

// BinFrequency returns the center frequency of bin i.
func (a *Analyzer) BinFrequency(i int) float64 {
	if i < 0 || i >= len(a.ws.magnitude) {
		return 0
	}
	return a.fft.Freq(i) * a.sampleRate
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. It
// returns Hann and an error for unknown names.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
