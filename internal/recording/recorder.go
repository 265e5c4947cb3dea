// SPDX-License-Identifier: MIT
//
// Package recording writes raw analysis windows to 16-bit mono WAV files so
// that a session can be replayed through the wav source later.
package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tuner/internal/capture"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth    = 16
	pcmFormat   = 1
	numChannels = 1
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("recorder closed")

// Recorder appends windows to a WAV file. Writes are serialized.
type Recorder struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

// Open creates path and writes the WAV header for sampleRate.
func Open(path string, sampleRate int) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	return &Recorder{
		path: path,
		file: file,
		enc:  wav.NewEncoder(file, sampleRate, bitDepth, numChannels, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
			Data:           make([]int, capture.SmpPoints),
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// OpenInDir creates a time stamped file under dir.
func OpenInDir(dir string, sampleRate int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}
	name := fmt.Sprintf("tuner-%s.wav", time.Now().Format("20060102-150405"))
	return Open(filepath.Join(dir, name), sampleRate)
}

// Path returns the file being written.
func (r *Recorder) Path() string { return r.path }

// Write appends one window.
func (r *Recorder) Write(window []capture.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return ErrClosed
	}

	if cap(r.buf.Data) < len(window) {
		r.buf.Data = make([]int, len(window))
	}
	r.buf.Data = r.buf.Data[:len(window)]
	for i, s := range window {
		r.buf.Data[i] = s.Signed(bitDepth)
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	return nil
}

// Close finalizes the header and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}

	encErr := r.enc.Close()
	fileErr := r.file.Close()
	r.enc, r.file = nil, nil
	if encErr != nil {
		return fmt.Errorf("failed to finalize recording: %w", encErr)
	}
	return fileErr
}
