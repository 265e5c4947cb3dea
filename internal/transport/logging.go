// SPDX-License-Identifier: MIT
package transport

import (
	applog "tuner/internal/log"
)

// LoggingTransport writes every reading to the debug log.
type LoggingTransport struct{}

// NewLoggingTransport returns a LoggingTransport.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send implements Transport.
func (lt *LoggingTransport) Send(data any) error {
	if r, ok := data.(Reading); ok {
		applog.Debugf("Transport: %s%d offset=%.1f measured=%.2f reference=%.0f",
			r.Note, r.Octave, r.Offset, r.Measured, r.Reference)
		return nil
	}
	applog.Debugf("Transport: %+v", data)
	return nil
}

// Close implements Transport.
func (lt *LoggingTransport) Close() error { return nil }

var _ Transport = (*LoggingTransport)(nil)
