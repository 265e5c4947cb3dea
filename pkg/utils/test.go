// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"sync"

	"tuner/internal/capture"
)

// Center is the midpoint of the converter range.
const Center = 0x2000

// MockTransport implements the Transport interface for testing.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores the data for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Last returns the most recently sent value, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// SineWindow returns size converter samples of a sine at frequency Hz with
// the given peak amplitude around Center. start is the index of the first
// sample so that consecutive windows stay phase-continuous.
func SineWindow(size int, sampleRate, frequency, amplitude float64, start int) []capture.Sample {
	buffer := make([]capture.Sample, size)
	for i := range buffer {
		t := float64(start+i) / sampleRate
		buffer[i] = clamp(Center + amplitude*math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental plus two harmonics, scaled
// to the given peak amplitude around Center.
func GenerateComplexWave(size int, sampleRate, amplitude float64) []capture.Sample {
	buffer := make([]capture.Sample, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = clamp(Center + signal*amplitude)
	}
	return buffer
}

// TriangleWindow returns a triangle wave that starts at lo, reaches hi at
// half period and returns to lo every period samples.
func TriangleWindow(size int, lo, hi capture.Sample, period int) []capture.Sample {
	buffer := make([]capture.Sample, size)
	half := period / 2
	span := int(hi) - int(lo)
	for i := range buffer {
		p := i % period
		if p > half {
			p = period - p
		}
		buffer[i] = lo + capture.Sample(span*p/half)
	}
	return buffer
}

func clamp(v float64) capture.Sample {
	switch {
	case v < 0:
		return 0
	case v > float64(capture.MaxSample):
		return capture.MaxSample
	default:
		return capture.Sample(math.Round(v))
	}
}
