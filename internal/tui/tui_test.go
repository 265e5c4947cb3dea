// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	"tuner/internal/input"
	"tuner/internal/source"
	"tuner/internal/tuner"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (tea.Model, tea.Cmd) {
	t.Helper()
	return m.Update(msg)
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestMeterShowsReading(t *testing.T) {
	var m tea.Model = NewMeterModel(320, nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, offsetMsg(160))
	m, _ = update(t, m, noteMsg{name: "A", octave: 4})
	m, _ = update(t, m, frequencyMsg{measured: 440.12, reference: 440})
	m, _ = update(t, m, spectralMsg(439.5))

	view := m.View()
	for _, want := range []string{"A4", "440.12 Hz", "ref 440 Hz", "fft 439.50 Hz", "█"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestMeterBeforeFirstEstimate(t *testing.T) {
	m := NewMeterModel(320, nil, nil)
	view := m.View()
	if !strings.Contains(view, "--") || strings.Contains(view, "█") {
		t.Errorf("unexpected idle view:\n%s", view)
	}
}

func TestMeterNeedlePosition(t *testing.T) {
	tests := []struct {
		offset float64
		pos    int
	}{
		{0, 0},
		{160, 30},
		{320, 60},
		{-50, 0},
		{400, 60},
	}
	for _, tt := range tests {
		m := NewMeterModel(320, nil, nil)
		m.width = 200
		m.offset, m.hasOffset = tt.offset, true

		bar := []rune(stripANSI(m.bar()))
		idx := -1
		for i, r := range bar {
			if r == '█' {
				idx = i - 1 // leading bracket
			}
		}
		if idx != tt.pos {
			t.Errorf("offset %.0f: needle at %d, want %d", tt.offset, idx, tt.pos)
		}
	}
}

func TestMeterCentsColor(t *testing.T) {
	m := NewMeterModel(320, nil, nil)
	m.hasOffset = true

	m.offset = 160
	if c := m.cents(); c != 0 {
		t.Errorf("centered cents: got %.2f", c)
	}
	m.offset = 160 + 30 // 10 cents sharp
	if c := m.cents(); c < 9.99 || c > 10.01 {
		t.Errorf("cents: got %.2f, want 10", c)
	}
}

func TestMeterKeysTapKeyPad(t *testing.T) {
	kp := input.NewKeyPad(1)
	var m tea.Model = NewMeterModel(320, kp, nil)

	m, _ = update(t, m, runes("+"))
	if up, down := kp.Levels(); !up || down {
		t.Errorf("after +: up=%v down=%v", up, down)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if up, down := kp.Levels(); up || !down {
		t.Errorf("after down: up=%v down=%v", up, down)
	}
	if _, cmd := update(t, m, runes("q")); !isQuit(cmd) {
		t.Error("q did not quit")
	}
}

func TestMeterStatsTick(t *testing.T) {
	stats := func() tuner.Stats { return tuner.Stats{Windows: 12, Accepted: 10} }
	var m tea.Model = NewMeterModel(320, nil, stats)
	if m.Init() == nil {
		t.Fatal("expected stats tick")
	}
	m, cmd := update(t, m, statsMsg(stats()))
	if cmd == nil {
		t.Error("stats tick not rescheduled")
	}
	if view := m.View(); !strings.Contains(view, "windows 12") || !strings.Contains(view, "accepted 10") {
		t.Errorf("stats line missing:\n%s", view)
	}
}

func TestDeviceListSelectsInput(t *testing.T) {
	fetch := func() ([]source.Device, error) {
		return []source.Device{
			{ID: 0, Name: "speakers", MaxOutputChannels: 2},
			{ID: 1, Name: "usb mic", MaxInputChannels: 1},
			{ID: 2, Name: "line in", MaxInputChannels: 2},
		}, nil
	}
	var m tea.Model = NewDeviceListModel(fetch)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, m.Init()())

	view := m.View()
	if strings.Contains(view, "speakers") || !strings.Contains(view, "usb mic") {
		t.Errorf("device list should offer inputs only:\n%s", view)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(cmd) {
		t.Error("enter did not quit")
	}
	if got := m.(DeviceListModel).Selected(); got != 2 {
		t.Errorf("selected %d, want 2", got)
	}
}

func TestDeviceListError(t *testing.T) {
	var m tea.Model = NewDeviceListModel(func() ([]source.Device, error) {
		return nil, errors.New("PortAudio not initialized")
	})
	m, _ = update(t, m, m.Init()())
	if !strings.Contains(m.View(), "PortAudio not initialized") {
		t.Errorf("error not shown:\n%s", m.View())
	}
	if m.(DeviceListModel).Selected() != -1 {
		t.Error("selection made on error")
	}
}

// stripANSI removes SGR escape sequences.
func stripANSI(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
