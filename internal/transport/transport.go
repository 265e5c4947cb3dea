// SPDX-License-Identifier: MIT
//
// Package transport publishes tuner readings to external consumers.
package transport

import "time"

// Transport sends readings or events. Implementations must be safe for
// concurrent use and must not block the caller for long.
type Transport interface {
	Send(data any) error
	Close() error
}

// Reading is the display state after an update: the last measured
// frequency, the reference pitch and where the note marker sits.
type Reading struct {
	Measured  float64   `json:"measured"`
	Reference float64   `json:"reference"`
	Offset    float64   `json:"offset"`
	Note      string    `json:"note"`
	Octave    int       `json:"octave"`
	Spectral  float64   `json:"spectral,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
