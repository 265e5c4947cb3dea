// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"math"
	"sync"
	"time"

	"tuner/internal/capture"
	"tuner/internal/log"
)

// tick is how often paced sources deliver a batch of samples.
const tick = 5 * time.Millisecond

// Tone generates a sine wave at a fixed frequency, paced at the sample rate.
type Tone struct {
	frequency  float64
	amplitude  float64
	sampleRate float64

	mu      sync.Mutex
	n       int
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewTone returns a tone source. amplitude is the peak in converter counts.
func NewTone(frequency, amplitude, sampleRate float64) *Tone {
	return &Tone{frequency: frequency, amplitude: amplitude, sampleRate: sampleRate}
}

// Next returns the next sample of the tone.
func (t *Tone) Next() capture.Sample {
	phase := 2 * math.Pi * t.frequency * float64(t.n) / t.sampleRate
	t.n++
	v := float64(1<<13) + t.amplitude*math.Sin(phase)
	return capture.Sample(math.Round(math.Max(0, math.Min(float64(capture.MaxSample), v))))
}

// Fill writes len(buf) consecutive samples into buf.
func (t *Tone) Fill(buf []capture.Sample) {
	for i := range buf {
		buf[i] = t.Next()
	}
}

// Start implements Source.
func (t *Tone) Start(ctx context.Context, sink Sink) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrStarted
	}
	t.started = true

	ctx, t.cancel = context.WithCancel(ctx)
	log.Infof("Tone: generating %.2f Hz at %.0f Hz", t.frequency, t.sampleRate)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		pace(ctx, t.sampleRate, func() bool {
			sink.Deliver(t.Next())
			return true
		})
	}()
	return nil
}

// Close implements Source.
func (t *Tone) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	t.wg.Wait()
	return nil
}

// pace calls next sampleRate times per second of wall clock, in batches every
// tick, until ctx is done or next returns false.
func pace(ctx context.Context, sampleRate float64, next func() bool) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	start := time.Now()
	var sent int64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due := int64(now.Sub(start).Seconds() * sampleRate)
			for ; sent < due; sent++ {
				if !next() {
					return
				}
			}
		}
	}
}

var _ Source = (*Tone)(nil)
