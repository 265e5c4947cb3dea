// SPDX-License-Identifier: MIT
package utils

import (
	"os"
	"testing"

	"tuner/internal/capture"
)

const (
	testSize       = 2048
	testSampleRate = 82977
	testFrequency  = 440.0 // A4 note
)

var (
	testComplexWave []capture.Sample
	testSineWave    []capture.Sample
)

func TestMain(m *testing.M) {
	testComplexWave = GenerateComplexWave(testSize, testSampleRate, 1000)
	testSineWave = SineWindow(testSize, testSampleRate, testFrequency, 1000, 0)

	os.Exit(m.Run())
}

func TestMockTransport(t *testing.T) {
	tests := []struct {
		name  string
		input []any
	}{
		{"Empty", nil},
		{"Single Value", []any{0.5}},
		{"Multiple Values", []any{"a", 2, 3.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := &MockTransport{}
			for _, v := range tt.input {
				if err := mt.Send(v); err != nil {
					t.Errorf("MockTransport.Send() error = %v", err)
				}
			}
			if len(mt.Sent) != len(tt.input) {
				t.Errorf("stored %d values, want %d", len(mt.Sent), len(tt.input))
			}
			if len(tt.input) == 0 && mt.Last() != nil {
				t.Errorf("Last() on empty transport = %v", mt.Last())
			}
			if len(tt.input) > 0 && mt.Last() != tt.input[len(tt.input)-1] {
				t.Errorf("Last() = %v, want %v", mt.Last(), tt.input[len(tt.input)-1])
			}
			_ = mt.Close()
			if !mt.Closed {
				t.Error("Close() did not mark transport closed")
			}
		})
	}
}

func TestSineWindowRange(t *testing.T) {
	lo, hi := testSineWave[0], testSineWave[0]
	for _, s := range testSineWave {
		lo, hi = min(lo, s), max(hi, s)
	}
	if hi-lo < 1990 || hi-lo > 2000 {
		t.Errorf("peak-to-peak: got %d, want ~2000", hi-lo)
	}
	if testSineWave[0] != Center {
		t.Errorf("first sample: got %d, want %d", testSineWave[0], Center)
	}
}

func TestSineWindowContinuity(t *testing.T) {
	a := SineWindow(testSize*2, testSampleRate, testFrequency, 1000, 0)
	b := SineWindow(testSize, testSampleRate, testFrequency, 1000, testSize)
	for i := range b {
		if a[testSize+i] != b[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, a[testSize+i], b[i])
		}
	}
}

func TestComplexWaveWithinRange(t *testing.T) {
	for i, s := range testComplexWave {
		if s > capture.MaxSample {
			t.Fatalf("sample %d = %d above converter range", i, s)
		}
	}
}

func TestTriangleWindow(t *testing.T) {
	w := TriangleWindow(128, 100, 200, 64)
	if w[0] != 100 || w[32] != 200 || w[64] != 100 {
		t.Errorf("triangle extremes: got %d %d %d", w[0], w[32], w[64])
	}
	for i, s := range w {
		if s < 100 || s > 200 {
			t.Fatalf("sample %d = %d outside [100, 200]", i, s)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want capture.Sample
	}{
		{-5, 0},
		{0, 0},
		{1.4, 1},
		{1.6, 2},
		{20000, capture.MaxSample},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
