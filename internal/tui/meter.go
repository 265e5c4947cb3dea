// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"tuner/internal/display"
	"tuner/internal/input"
	"tuner/internal/tuner"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	statsInterval = 250 * time.Millisecond
	maxBarWidth   = 61
	minBarWidth   = 11
	frequencyW    = 12
)

var (
	noteStyle = lipgloss.NewStyle().Bold(true).Padding(0, 2)
	inTune    = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")).Bold(true)
	nearTune  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")).Bold(true)
	outOfTune = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370"))
)

type meterKeys struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func (k meterKeys) ShortHelp() []key.Binding { return []key.Binding{k.Up, k.Down, k.Quit} }

func (k meterKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultMeterKeys = meterKeys{
	Up:   key.NewBinding(key.WithKeys("+", "=", "up", "k"), key.WithHelp("+/↑", "reference +1 Hz")),
	Down: key.NewBinding(key.WithKeys("-", "down", "j"), key.WithHelp("-/↓", "reference -1 Hz")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type (
	offsetMsg float64
	noteMsg   struct {
		name   string
		octave int
	}
	frequencyMsg struct{ measured, reference float64 }
	spectralMsg  float64
	statsMsg     tuner.Stats
)

// MeterModel is the bubbletea model of the tuning meter.
type MeterModel struct {
	keys   meterKeys
	help   help.Model
	keypad *input.KeyPad
	stats  func() tuner.Stats

	width        int
	displayWidth int

	offset    float64
	hasOffset bool
	name      string
	octave    int
	measured  float64
	reference float64
	spectral  float64
	counters  tuner.Stats
}

// NewMeterModel returns a meter for an engine whose offsets span
// displayWidth. keypad receives the reference key taps and stats, if not
// nil, is sampled for the status line.
func NewMeterModel(displayWidth int, keypad *input.KeyPad, stats func() tuner.Stats) MeterModel {
	return MeterModel{
		keys:         defaultMeterKeys,
		help:         help.New(),
		keypad:       keypad,
		stats:        stats,
		displayWidth: displayWidth,
		width:        maxBarWidth + 4,
	}
}

func (m MeterModel) Init() tea.Cmd {
	return m.tick()
}

func (m MeterModel) tick() tea.Cmd {
	if m.stats == nil {
		return nil
	}
	return tea.Tick(statsInterval, func(time.Time) tea.Msg { return statsMsg(m.stats()) })
}

func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.keypad != nil {
				m.keypad.Tap(true)
			}
		case key.Matches(msg, m.keys.Down):
			if m.keypad != nil {
				m.keypad.Tap(false)
			}
		}

	case offsetMsg:
		m.offset = float64(msg)
		m.hasOffset = true
	case noteMsg:
		m.name, m.octave = msg.name, msg.octave
	case frequencyMsg:
		m.measured, m.reference = msg.measured, msg.reference
	case spectralMsg:
		m.spectral = float64(msg)
	case statsMsg:
		m.counters = tuner.Stats(msg)
		return m, m.tick()
	}
	return m, nil
}

func (m MeterModel) View() string {
	var sb strings.Builder

	label := "--"
	if m.name != "" {
		label = fmt.Sprintf("%s%d", m.name, m.octave)
	}
	sb.WriteString(m.style().Inherit(noteStyle).Render(label))
	sb.WriteString("\n\n")
	sb.WriteString(m.bar())
	sb.WriteString("\n\n")

	measured := "-"
	if m.measured > 0 {
		measured = display.FormatMeasured(m.measured)
	}
	fmt.Fprintf(&sb, "%*s   ref %s", frequencyW, measured, display.FormatReference(m.reference))
	if m.spectral > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("   fft %s", display.FormatMeasured(m.spectral))))
	}
	sb.WriteString("\n")

	if m.stats != nil {
		c := m.counters
		sb.WriteString(dimStyle.Render(fmt.Sprintf(
			"windows %d  accepted %d  transient %d  unstable %d  dropped %d",
			c.Windows, c.Accepted, c.Transient, c.Unstable, c.Dropped)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// cents converts the meter offset back into cents off the nearest note.
func (m MeterModel) cents() float64 {
	span := float64(m.displayWidth - 20)
	if span <= 0 {
		return 0
	}
	return (m.offset - float64(m.displayWidth)/2) / span * 100
}

func (m MeterModel) style() lipgloss.Style {
	if !m.hasOffset {
		return dimStyle
	}
	switch c := math.Abs(m.cents()); {
	case c < 5:
		return inTune
	case c < 15:
		return nearTune
	default:
		return outOfTune
	}
}

// bar draws the needle on a scale with the in-tune mark in the middle.
func (m MeterModel) bar() string {
	width := m.width - 4
	if width > maxBarWidth {
		width = maxBarWidth
	}
	if width < minBarWidth {
		width = minBarWidth
	}
	if width%2 == 0 {
		width--
	}

	cells := []rune(strings.Repeat("─", width))
	mid := width / 2
	cells[mid] = '┼'

	if !m.hasOffset || m.displayWidth <= 0 {
		return "[" + dimStyle.Render(string(cells)) + "]"
	}

	pos := int(math.Round(m.offset / float64(m.displayWidth) * float64(width-1)))
	pos = max(0, min(width-1, pos))

	left := string(cells[:pos])
	right := string(cells[pos+1:])
	return "[" + dimStyle.Render(left) + m.style().Render("█") + dimStyle.Render(right) + "]"
}

// Meter runs the meter program and implements display.Display by posting
// messages to it.
type Meter struct {
	program *tea.Program
}

// NewMeter builds the program. Call Run to take over the terminal.
func NewMeter(model MeterModel, opts ...tea.ProgramOption) *Meter {
	return &Meter{program: tea.NewProgram(model, opts...)}
}

// Run blocks until the user quits or Quit is called.
func (m *Meter) Run() error {
	_, err := m.program.Run()
	return err
}

// Quit stops the program.
func (m *Meter) Quit() { m.program.Quit() }

func (m *Meter) ShowOffset(offset float64) { m.program.Send(offsetMsg(offset)) }

func (m *Meter) ShowNote(name string, octave int) {
	m.program.Send(noteMsg{name: name, octave: octave})
}

func (m *Meter) ShowFrequency(measured, reference float64) {
	m.program.Send(frequencyMsg{measured: measured, reference: reference})
}

func (m *Meter) ShowSpectral(hz float64) { m.program.Send(spectralMsg(hz)) }

var (
	_ display.Display         = (*Meter)(nil)
	_ display.SpectralDisplay = (*Meter)(nil)
)
