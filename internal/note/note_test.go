// SPDX-License-Identifier: MIT
package note

import (
	"math"
	"testing"
)

func TestMapReferenceIsCentered(t *testing.T) {
	m, ok := Map(440, 440, DefaultDisplayWidth)
	if !ok {
		t.Fatal("Map(440, 440) rejected")
	}
	if m.ToneNumber != 49.0 {
		t.Errorf("tone number: got %v, want 49", m.ToneNumber)
	}
	if m.Index != 49 {
		t.Errorf("index: got %d, want 49", m.Index)
	}
	if m.Offset != DefaultDisplayWidth/2 {
		t.Errorf("offset: got %v, want %d", m.Offset, DefaultDisplayWidth/2)
	}
	if m.Cents() != 0 {
		t.Errorf("cents: got %v, want 0", m.Cents())
	}
}

func TestMapNotes(t *testing.T) {
	tests := []struct {
		name      string
		reference float64
		measured  float64
		index     int
		label     string
	}{
		{"A4", 440, 440, 49, "A4"},
		{"Middle C", 440, 261.63, 40, "C4"},
		{"Low E", 440, 82.41, 20, "E2"},
		{"High E", 440, 329.63, 44, "E4"},
		{"A5", 440, 880, 61, "A5"},
		{"B3", 440, 246.94, 39, "B3"},
		{"A4 at 442", 442, 442, 49, "A4"},
		{"Sharp A", 440, 450, 49, "A4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Map(tt.reference, tt.measured, DefaultDisplayWidth)
			if !ok {
				t.Fatal("Map rejected input")
			}
			if m.Index != tt.index {
				t.Errorf("index: got %d, want %d", m.Index, tt.index)
			}
			if got := Label(m.Index); got != tt.label {
				t.Errorf("label: got %s, want %s", got, tt.label)
			}
			if m.Offset < meterMargin/2 || m.Offset > DefaultDisplayWidth-meterMargin/2 {
				t.Errorf("offset %v outside meter", m.Offset)
			}
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{49.5, 50},
		{49.49, 49},
		{48.5, 49},
		{-0.5, 0},
		{-0.51, -1},
		{49, 49},
	}
	for _, tt := range tests {
		if got := roundHalfUp(tt.in); got != tt.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMapOffsetLinear(t *testing.T) {
	const width = 320
	// A quarter tone flat of A4.
	m, _ := Map(440, 440*math.Exp2(-0.25/12), width)
	want := -0.25*(width-meterMargin) + width/2
	if math.Abs(m.Offset-want) > 1e-6 {
		t.Errorf("offset: got %v, want %v", m.Offset, want)
	}
	if math.Abs(m.Cents()+25) > 1e-6 {
		t.Errorf("cents: got %v, want -25", m.Cents())
	}
}

func TestMapRejectsInvalid(t *testing.T) {
	for _, tt := range []struct{ ref, f float64 }{
		{440, 0}, {0, 440}, {440, -1}, {440, math.NaN()}, {440, math.Inf(1)},
	} {
		if _, ok := Map(tt.ref, tt.f, DefaultDisplayWidth); ok {
			t.Errorf("Map(%v, %v) accepted", tt.ref, tt.f)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		index  int
		name   string
		octave int
	}{
		{1, "A", 0},
		{3, "B", 0},
		{4, "C", 1},
		{40, "C", 4},
		{49, "A", 4},
		{88, "C", 8},
		{-8, "C", 0},
		{-9, "B", -1},
	}
	for _, tt := range tests {
		name, octave := Name(tt.index)
		if name != tt.name || octave != tt.octave {
			t.Errorf("Name(%d) = %s%d, want %s%d", tt.index, name, octave, tt.name, tt.octave)
		}
	}
}

func TestFrequency(t *testing.T) {
	if got := Frequency(440, 49); got != 440 {
		t.Errorf("Frequency(440, 49) = %v", got)
	}
	if got := Frequency(440, 61); math.Abs(got-880) > 1e-9 {
		t.Errorf("Frequency(440, 61) = %v, want 880", got)
	}
	if got := Frequency(440, 40); math.Abs(got-261.6256) > 1e-3 {
		t.Errorf("Frequency(440, 40) = %v, want 261.63", got)
	}
}
