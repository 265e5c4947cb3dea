// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"io"

	"tuner/internal/capture"
	"tuner/internal/config"
	"tuner/internal/display"
	"tuner/internal/note"
	"tuner/internal/source"
	"tuner/internal/tuner"
)

// analyze feeds a WAV file through the detector as fast as possible and
// writes one line per estimate to w.
func analyze(cfg *config.Config, w io.Writer) error {
	wav, err := source.OpenWAV(cfg.Source.File, cfg.EffectiveSampleRate(), false)
	if err != nil {
		return err
	}
	defer wav.Close()

	producer, consumer := capture.New()
	engine, err := tuner.NewEngine(cfg, consumer, display.Fanout(nil))
	if err != nil {
		return err
	}

	rate := cfg.EffectiveSampleRate()
	fmt.Fprintf(w, "%-10s %-5s %12s %12s %8s %12s\n", "time", "note", "target", "frequency", "cents", "fft")
	engine.OnEstimate(func(e tuner.Estimate) {
		st := engine.Stats()
		at := float64(st.Windows*(capture.SmpPoints+1)) / rate
		fmt.Fprintf(w, "%-10s %-5s %12s %12s %+8.1f %12s\n",
			fmt.Sprintf("%.2fs", at), note.Label(e.Note), display.FormatMeasured(e.Target),
			display.FormatMeasured(e.Frequency), e.Cents, display.FormatMeasured(e.Spectral))
	})

	engine.Feed(producer, wav.Samples())

	st := engine.Stats()
	fmt.Fprintf(w, "\n%d windows: %d accepted, %d transient, %d flat, %d without periods, %d unstable, %d estimates\n",
		st.Windows, st.Accepted, st.Transient, st.Flat, st.NoPeriods, st.Unstable, st.Estimates)
	return nil
}
