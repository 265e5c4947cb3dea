// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"tuner/cmd"
	"tuner/internal/capture"
	"tuner/internal/config"
	"tuner/internal/display"
	"tuner/internal/input"
	applog "tuner/internal/log"
	"tuner/internal/recording"
	"tuner/internal/source"
	"tuner/internal/transport"
	"tuner/internal/transport/udp"
	"tuner/internal/tui"
	"tuner/internal/tuner"
	"tuner/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// main is the entry point of the tuner. The program flow is divided into
// three phases:
//
// 1. Startup Phase (Cold Path):
//   - Read build information and parse the command line
//   - Configure logging
//   - Initialize PortAudio when a device is needed
//   - Execute one-off commands (list, analyze)
//
// 2. Concurrent Phase (Hot Path):
//   - The source goroutine delivers samples into the capture pair
//   - The engine goroutine processes full windows and updates the displays
//   - The terminal meter, if enabled, owns the main goroutine
//
// 3. Shutdown Phase (Cold Path):
//   - Cancel on signal, quit key or end of file
//   - Stop the source, then the engine, then close sinks and recordings
func main() {
	if err := run(); err != nil {
		applog.Fatalf("%v", err)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildErr := build.Initialize()

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if buildErr != nil {
		applog.Debugf("Build: running without link-time metadata: %v", buildErr)
	}

	// One thread for the source callback, one for the engine.
	runtime.GOMAXPROCS(max(2, runtime.GOMAXPROCS(0)))

	if needsPortAudio(cfg) {
		if err := source.Initialize(); err != nil {
			return err
		}
		defer source.Terminate()
	}

	switch cfg.Command {
	case config.CommandList:
		return source.ListDevices(os.Stdout)
	case config.CommandPick:
		id, err := tui.PickDevice(source.Devices)
		if err != nil {
			return err
		}
		if id >= 0 {
			fmt.Printf("--device %d\n", id)
		}
		return nil
	case config.CommandAnalyze:
		return analyze(cfg, os.Stdout)
	}

	return live(cfg)
}

func needsPortAudio(cfg *config.Config) bool {
	switch cfg.Command {
	case config.CommandList, config.CommandPick:
		return true
	case "":
		return cfg.Source.Kind == config.SourceMic
	}
	return false
}

// live runs the tuner until interrupted.
func live(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer, consumer := capture.New()

	if cfg.Tuner.TUI && !term.IsTerminal(int(os.Stdout.Fd())) {
		applog.Warnf("Meter: stdout is not a terminal, falling back to log output")
		cfg.Tuner.TUI = false
	}

	// The terminal meter owns stdout, so logs go to a file or nowhere.
	if cfg.Tuner.TUI {
		out, closeLog, err := logOutput(cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
		applog.SetOutput(out)
	}

	displays := display.Fanout{display.Log{}}
	closers, err := openTransports(cfg, &displays)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				applog.Warnf("Shutdown: %v", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	var (
		engine *tuner.Engine
		meter  *tui.Meter
		keypad *input.KeyPad
	)
	if cfg.Tuner.TUI {
		keypad = input.NewKeyPad(cfg.Tuner.DebouncePolls + 1)
		model := tui.NewMeterModel(cfg.Tuner.DisplayWidth, keypad, func() tuner.Stats { return engine.Stats() })
		meter = tui.NewMeter(model, tea.WithAltScreen())
		displays = append(displays, meter)
	}

	engine, err = tuner.NewEngine(cfg, consumer, displays)
	if err != nil {
		return err
	}
	if keypad != nil {
		engine.SetButtons(keypad)
	}

	if cfg.Recording.Enabled {
		rec, err := recording.OpenInDir(cfg.Recording.OutputDir, int(cfg.EffectiveSampleRate()))
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				applog.Errorf("Recording: %v", err)
			}
			fmt.Printf("Recording saved to: %s\n", rec.Path())
		}()
		engine.SetRecorder(rec)
	}

	src, err := source.New(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := src.Start(ctx, producer); err != nil {
		return err
	}
	if w, ok := src.(*source.WAVFile); ok && !cfg.Source.Loop {
		go func() {
			select {
			case <-w.Done():
				stop()
			case <-ctx.Done():
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil {
			applog.Errorf("Engine: %v", err)
		}
	}()

	if meter != nil {
		go func() {
			<-ctx.Done()
			meter.Quit()
		}()
		if err := meter.Run(); err != nil {
			applog.Errorf("Meter: %v", err)
		}
		stop()
	} else {
		applog.Infof("Tuner running, reference %s. Press Ctrl+C to stop.",
			display.FormatReference(engine.Reference()))
		<-ctx.Done()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := src.Close(); err != nil {
		applog.Warnf("Shutdown: closing source: %v", err)
	}
	wg.Wait()

	st := engine.Stats()
	applog.Infof("Shutdown: %d windows, %d estimates, %d dropped", st.Windows, st.Estimates, st.Dropped)
	return nil
}

// openTransports starts the enabled network sinks and adds a display for
// each. The returned closers must be closed even on error.
func openTransports(cfg *config.Config, displays *display.Fanout) ([]io.Closer, error) {
	var closers []io.Closer
	add := func(t transport.Transport) {
		closers = append(closers, t)
		*displays = append(*displays, display.NewTransport(t))
	}

	if cfg.Debug {
		add(transport.NewLoggingTransport())
	}
	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err != nil {
			return closers, err
		}
		add(ws)
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return closers, err
		}
		pub, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return closers, err
		}
		add(pub)
	}
	return closers, nil
}

func logOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
