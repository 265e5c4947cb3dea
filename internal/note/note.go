// SPDX-License-Identifier: MIT
//
// Package note maps frequencies onto the 12-tone equal-temperament scale.
// Notes are numbered like piano keys: index 49 is the reference pitch (A4 by
// convention) and index 40 is middle C.
package note

import (
	"fmt"
	"math"
)

// ReferenceIndex is the note index of the reference pitch.
const ReferenceIndex = 49

// DefaultDisplayWidth is the meter width, in pixels, of the tuner screen.
const DefaultDisplayWidth = 320

// meterMargin is the number of pixels left unused at the meter ends.
const meterMargin = 20

var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Mapping is the position of a frequency on the scale.
type Mapping struct {
	ToneNumber float64 // continuous note index
	Index      int     // nearest note index, half rounds up
	Offset     float64 // horizontal meter position in pixels
}

// Map places measured relative to reference on a meter displayWidth pixels
// wide. A perfectly tuned note lands at displayWidth/2. It returns false if
// either frequency is not positive.
func Map(reference, measured float64, displayWidth int) (Mapping, bool) {
	if reference <= 0 || measured <= 0 || math.IsNaN(measured) || math.IsInf(measured, 0) {
		return Mapping{}, false
	}

	tone := ReferenceIndex + 12*math.Log2(measured/reference)
	index := roundHalfUp(tone)
	offset := (tone-float64(index))*float64(displayWidth-meterMargin) + float64(displayWidth)/2

	return Mapping{ToneNumber: tone, Index: index, Offset: offset}, true
}

// Cents returns the signed error from the nearest note in cents.
func (m Mapping) Cents() float64 {
	return (m.ToneNumber - float64(m.Index)) * 100
}

// Name returns the pitch class name and octave of a note index.
func Name(index int) (string, int) {
	k := index + 8
	octave := floorDiv(k, 12)
	return names[k-octave*12], octave
}

// Label formats a note index as name and octave, e.g. "A4".
func Label(index int) string {
	name, octave := Name(index)
	return fmt.Sprintf("%s%d", name, octave)
}

// Frequency returns the equal-temperament frequency of a note index.
func Frequency(reference float64, index int) float64 {
	return reference * math.Exp2(float64(index-ReferenceIndex)/12)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
