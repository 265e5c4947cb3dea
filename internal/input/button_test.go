// SPDX-License-Identifier: MIT
package input

import "testing"

func TestDebouncerIgnoresGlitches(t *testing.T) {
	d := NewDebouncer(3)
	seq := []bool{true, false, true, true, false, true, true, true, true}
	want := []bool{false, false, false, false, false, false, false, true, true}

	for i, raw := range seq {
		if got := d.Update(raw); got != want[i] {
			t.Errorf("poll %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestButtonFiresOncePerPress(t *testing.T) {
	b := NewButton(2)
	presses := 0

	// Held for many polls, released, pressed again.
	levels := []bool{true, true, true, true, true, false, false, false, true, true, true}
	for _, raw := range levels {
		if b.Pressed(raw) {
			presses++
		}
	}
	if presses != 2 {
		t.Errorf("presses: got %d, want 2", presses)
	}
}

func TestButtonBounceIsOnePress(t *testing.T) {
	b := NewButton(2)
	presses := 0
	for _, raw := range []bool{true, false, true, true, false, true, true, true, false, false} {
		if b.Pressed(raw) {
			presses++
		}
	}
	if presses != 1 {
		t.Errorf("presses: got %d, want 1", presses)
	}
}

func TestKeyPadTapPassesDebouncer(t *testing.T) {
	const polls = 2
	k := NewKeyPad(polls)
	up, down := NewButton(polls), NewButton(polls)

	count := func(n int) (int, int) {
		u, d := 0, 0
		for range n {
			lu, ld := k.Levels()
			if up.Pressed(lu) {
				u++
			}
			if down.Pressed(ld) {
				d++
			}
		}
		return u, d
	}

	k.Tap(true)
	if u, d := count(10); u != 1 || d != 0 {
		t.Errorf("after up tap: up=%d down=%d", u, d)
	}

	k.Tap(false)
	k.Tap(false) // absorbed while the first tap is held
	if u, d := count(10); u != 0 || d != 1 {
		t.Errorf("after down taps: up=%d down=%d", u, d)
	}

	k.Tap(true)
	count(10)
	k.Tap(true)
	if u, _ := count(10); u != 1 {
		t.Errorf("second up tap after release: got %d presses", u)
	}
}

func TestKeyPadIdle(t *testing.T) {
	k := NewKeyPad(0)
	if u, d := k.Levels(); u || d {
		t.Error("idle keypad reports pressed")
	}
}
