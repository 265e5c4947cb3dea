// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"

	"tuner/internal/capture"
	"tuner/internal/log"

	"github.com/go-audio/wav"
)

// WAVFile replays channel 0 of a WAV file as converter samples.
type WAVFile struct {
	path       string
	samples    []capture.Sample
	fileRate   int
	sampleRate float64
	loop       bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
	done    chan struct{}
}

// OpenWAV decodes the whole file. sampleRate is the rate at which Start
// replays the samples; the file's own rate is only checked.
func OpenWAV(path string, sampleRate float64, loop bool) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav file: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}

	samples := make([]capture.Sample, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, capture.FromSigned(buf.Data[i], depth))
	}

	w := &WAVFile{
		path:       path,
		samples:    samples,
		fileRate:   buf.Format.SampleRate,
		sampleRate: sampleRate,
		loop:       loop,
		done:       make(chan struct{}),
	}
	if math.Abs(float64(w.fileRate)-sampleRate) > 1 {
		log.Warnf("WAV: %s recorded at %d Hz, replaying at %.0f Hz", path, w.fileRate, sampleRate)
	}
	log.Infof("WAV: loaded %s (%d samples, %d-bit, %d channel(s))", path, len(samples), depth, channels)
	return w, nil
}

// Samples returns every decoded sample.
func (w *WAVFile) Samples() []capture.Sample { return w.samples }

// FileSampleRate returns the sample rate stored in the file header.
func (w *WAVFile) FileSampleRate() int { return w.fileRate }

// Done is closed when a non-looping replay reaches the end of the file.
func (w *WAVFile) Done() <-chan struct{} { return w.done }

// Start implements Source.
func (w *WAVFile) Start(ctx context.Context, sink Sink) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.started {
		return ErrStarted
	}
	if len(w.samples) == 0 {
		return fmt.Errorf("wav file %s holds no samples", w.path)
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		i := 0
		pace(ctx, w.sampleRate, func() bool {
			if i == len(w.samples) {
				if !w.loop {
					close(w.done)
					return false
				}
				i = 0
			}
			sink.Deliver(w.samples[i])
			i++
			return true
		})
	}()
	return nil
}

// Close implements Source.
func (w *WAVFile) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

var _ Source = (*WAVFile)(nil)
