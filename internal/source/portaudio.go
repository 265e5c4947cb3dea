// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"tuner/internal/capture"
	"tuner/internal/config"
	"tuner/internal/log"

	"github.com/gordonklaus/portaudio"
)

// PortAudio library entry points, replaceable in tests.
var (
	paInitialize         = portaudio.Initialize
	paTerminate          = portaudio.Terminate
	paDevices            = portaudio.Devices
	paDefaultInputDevice = portaudio.DefaultInputDevice
	paIsFormatSupported  = portaudio.IsFormatSupported
)

// Initialize sets up the PortAudio subsystem. Pair it with Terminate.
func Initialize() error {
	if err := paInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts the PortAudio subsystem down.
func Terminate() error {
	if err := paTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device describes a host audio device.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
}

// Kind reports whether the device captures, plays or both.
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	}
	return "None"
}

// Devices returns every host device. PortAudio must be initialized.
func Devices() ([]Device, error) {
	infos, err := paDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowInputLatency:   info.DefaultLowInputLatency,
			HighInputLatency:  info.DefaultHighInputLatency,
		}
	}
	return devices, nil
}

// ListDevices writes a human readable device table to w.
func ListDevices(w io.Writer) error {
	devices, err := Devices()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAvailable Audio Devices\n\n")
	for _, d := range devices {
		fmt.Fprintf(w, "[%d] %s (%s)\n", d.ID, d.Name, d.Kind())
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n\n",
			d.LowInputLatency.Seconds()*1000, d.HighInputLatency.Seconds()*1000)
	}
	return nil
}

// inputDevice resolves a device ID. config.MinDeviceID selects the system
// default input.
func inputDevice(id int) (*portaudio.DeviceInfo, error) {
	if id == config.MinDeviceID {
		return paDefaultInputDevice()
	}
	infos, err := paDevices()
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", id)
	}
	if infos[id].MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) does not support input", id, infos[id].Name)
	}
	return infos[id], nil
}

// PortAudio captures channel 0 of a host input device. The stream callback
// plays the role of the conversion-ready interrupt: it hands every sample to
// the sink and never blocks.
type PortAudio struct {
	device     *portaudio.DeviceInfo
	channels   int
	frames     int
	latency    time.Duration
	sampleRate float64

	mu     sync.Mutex
	stream *portaudio.Stream
	sink   Sink
	conv   *rateConverter
	closed bool
}

// NewPortAudio resolves the configured input device. PortAudio must be
// initialized.
func NewPortAudio(cfg *config.Config) (*PortAudio, error) {
	device, err := inputDevice(cfg.Source.InputDevice)
	if err != nil {
		return nil, err
	}

	p := &PortAudio{
		device:     device,
		channels:   cfg.Source.InputChannels,
		frames:     cfg.Source.FramesPerBuffer,
		sampleRate: cfg.EffectiveSampleRate(),
	}
	if p.channels < 1 {
		p.channels = 1
	}
	if cfg.Source.LowLatency {
		p.latency = device.DefaultLowInputLatency
	} else {
		p.latency = device.DefaultHighInputLatency
	}
	return p, nil
}

// streamParams returns the input stream parameters at the given rate.
func (p *PortAudio) streamParams(rate float64) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   p.device,
			Channels: p.channels,
			Latency:  p.latency,
		},
		FramesPerBuffer: p.frames,
		SampleRate:      rate,
	}
}

// streamRate picks the rate the stream is opened at. The effective sample
// rate is preferred; devices that reject it are opened at their default
// rate and the callback converts to the effective rate.
func (p *PortAudio) streamRate() (float64, error) {
	err := paIsFormatSupported(p.streamParams(p.sampleRate), p.process)
	if err == nil {
		return p.sampleRate, nil
	}

	fallback := p.device.DefaultSampleRate
	if fallback <= 0 {
		return 0, fmt.Errorf("device %s does not support %.0f Hz (pitch.sample_rate minus pitch.calibration_offset): %w",
			p.device.Name, p.sampleRate, err)
	}
	if ferr := paIsFormatSupported(p.streamParams(fallback), p.process); ferr != nil {
		return 0, fmt.Errorf("device %s supports neither %.0f Hz (pitch.sample_rate minus pitch.calibration_offset) nor its default %.0f Hz: %w",
			p.device.Name, p.sampleRate, fallback, ferr)
	}
	log.Warnf("PortAudio: %s rejects %.0f Hz (%v), capturing at %.0f Hz and converting",
		p.device.Name, p.sampleRate, err, fallback)
	return fallback, nil
}

// Start implements Source. Samples reach the sink at the effective sample
// rate so that sample counts map onto time the way the detector expects.
func (p *PortAudio) Start(ctx context.Context, sink Sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.stream != nil {
		return ErrStarted
	}

	rate, err := p.streamRate()
	if err != nil {
		return err
	}
	p.sink = sink
	p.conv = nil
	if rate != p.sampleRate {
		p.conv = newRateConverter(rate, p.sampleRate, sink)
	}

	stream, err := portaudio.OpenStream(p.streamParams(rate), p.process)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	p.stream = stream
	log.Infof("PortAudio: capturing from %s at %.0f Hz", p.device.Name, rate)

	go func() {
		<-ctx.Done()
		p.Close()
	}()
	return nil
}

// process is the stream callback. Only channel 0 is delivered.
func (p *PortAudio) process(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for i := 0; i < len(in); i += p.channels {
		s := capture.FromSigned(int(in[i]), 32)
		if p.conv != nil {
			p.conv.push(s)
			continue
		}
		p.sink.Deliver(s)
	}
}

// Close implements Source.
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.stream == nil {
		return nil
	}

	stream := p.stream
	p.stream = nil
	if err := stream.Stop(); err != nil {
		stream.Close()
		return err
	}
	return stream.Close()
}

var _ Source = (*PortAudio)(nil)
