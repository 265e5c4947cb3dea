// SPDX-License-Identifier: MIT
//
// Package source provides sample producers. Each source converts its input
// to 14-bit unsigned converter samples and hands them to a Sink one at a
// time, the way a conversion-ready interrupt would.
package source

import (
	"context"
	"errors"
	"fmt"

	"tuner/internal/capture"
	"tuner/internal/config"
)

var (
	// ErrClosed is returned when a closed source is started.
	ErrClosed = errors.New("source closed")
	// ErrStarted is returned when a running source is started again.
	ErrStarted = errors.New("source already started")
)

// Sink receives samples. *capture.Producer implements it.
type Sink interface {
	Deliver(capture.Sample) capture.Result
}

// Source is a sample producer. Start begins delivery on a goroutine owned by
// the source and returns once delivery is running. Delivery stops when ctx
// is cancelled or Close is called.
type Source interface {
	Start(ctx context.Context, sink Sink) error
	Close() error
}

var _ Sink = (*capture.Producer)(nil)

// New builds the source selected by the configuration.
func New(cfg *config.Config) (Source, error) {
	switch cfg.Source.Kind {
	case config.SourceMic:
		p, err := NewPortAudio(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.SourceWAV:
		w, err := OpenWAV(cfg.Source.File, cfg.EffectiveSampleRate(), cfg.Source.Loop)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.SourceTone:
		return NewTone(cfg.Source.ToneFrequency, cfg.Source.ToneAmplitude, cfg.EffectiveSampleRate()), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
