// SPDX-License-Identifier: MIT
//
// Package input turns raw button levels into clean press events for the
// reference pitch adjustment.
package input

import "sync/atomic"

// Buttons reports the raw levels of the increase and decrease buttons.
type Buttons interface {
	Levels() (up, down bool)
}

// Debouncer accepts a new level only after it was read on polls
// consecutive polls.
type Debouncer struct {
	polls     int
	stable    bool
	candidate bool
	count     int
}

// NewDebouncer returns a debouncer that starts released.
func NewDebouncer(polls int) *Debouncer {
	if polls < 1 {
		polls = 1
	}
	return &Debouncer{polls: polls}
}

// Update feeds one raw reading and returns the debounced level.
func (d *Debouncer) Update(raw bool) bool {
	if raw == d.stable {
		d.count = 0
		return d.stable
	}
	if raw != d.candidate || d.count == 0 {
		d.candidate = raw
		d.count = 0
	}
	d.count++
	if d.count >= d.polls {
		d.stable = raw
		d.count = 0
	}
	return d.stable
}

// Button combines a debouncer with rising edge detection.
type Button struct {
	deb  *Debouncer
	prev bool
}

// NewButton returns a released button.
func NewButton(polls int) *Button {
	return &Button{deb: NewDebouncer(polls)}
}

// Pressed feeds one raw reading and reports true exactly once per clean
// press, not for every poll the button is held.
func (b *Button) Pressed(raw bool) bool {
	level := b.deb.Update(raw)
	edge := level && !b.prev
	b.prev = level
	return edge
}

// KeyPad is a pair of software buttons driven by key events. Each Tap holds
// the level high for a fixed number of Levels reads so that it passes the
// debouncer and then releases.
type KeyPad struct {
	hold int32
	up   atomic.Int32
	down atomic.Int32
}

// NewKeyPad returns a keypad whose taps last hold polls.
func NewKeyPad(hold int) *KeyPad {
	if hold < 1 {
		hold = 1
	}
	return &KeyPad{hold: int32(hold)}
}

// Tap presses the increase (up) or decrease button once. A tap while the
// previous one is still held is absorbed.
func (k *KeyPad) Tap(up bool) {
	if up {
		k.up.CompareAndSwap(0, k.hold)
	} else {
		k.down.CompareAndSwap(0, k.hold)
	}
}

// Levels implements Buttons.
func (k *KeyPad) Levels() (bool, bool) {
	return consume(&k.up), consume(&k.down)
}

func consume(v *atomic.Int32) bool {
	for {
		n := v.Load()
		if n <= 0 {
			return false
		}
		if v.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

var _ Buttons = (*KeyPad)(nil)
