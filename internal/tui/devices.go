// SPDX-License-Identifier: MIT
//
// Package tui holds the terminal views: the tuning meter and the input
// device picker.
package tui

import (
	"fmt"
	"strings"

	"tuner/internal/source"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

type devicesMsg struct {
	devices []source.Device
}

type errMsg struct {
	err error
}

// DeviceListModel lists input devices and lets the user pick one.
type DeviceListModel struct {
	fetch    func() ([]source.Device, error)
	devices  []source.Device
	cursor   int
	selected int
	viewport viewport.Model
	ready    bool
	err      error
}

// NewDeviceListModel returns a picker over the devices fetch reports. Only
// devices with input channels are offered.
func NewDeviceListModel(fetch func() ([]source.Device, error)) DeviceListModel {
	return DeviceListModel{fetch: fetch, selected: -1}
}

// Selected returns the chosen device ID, or -1 if the user quit.
func (m DeviceListModel) Selected() int { return m.selected }

func (m DeviceListModel) Init() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.fetch()
		if err != nil {
			return errMsg{err}
		}
		inputs := devices[:0:0]
		for _, d := range devices {
			if d.MaxInputChannels > 0 {
				inputs = append(inputs, d)
			}
		}
		return devicesMsg{inputs}
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderDevices())

	case devicesMsg:
		m.devices = msg.devices
		m.viewport.SetContent(m.renderDevices())

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))):
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if m.cursor > 0 {
				m.cursor--
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if m.cursor < len(m.devices)-1 {
				m.cursor++
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.devices) > 0 {
				m.selected = m.devices[m.cursor].ID
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Input Devices")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		info := fmt.Sprintf("[%d] %s\n", d.ID, d.Name)
		info += fmt.Sprintf("    Input channels: %d, default rate %.0f Hz, latency %.2fms\n",
			d.MaxInputChannels, d.DefaultSampleRate, d.LowInputLatency.Seconds()*1000)
		if i == m.cursor {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PickDevice runs the picker and returns the chosen device ID, or -1.
func PickDevice(fetch func() ([]source.Device, error)) (int, error) {
	final, err := tea.NewProgram(NewDeviceListModel(fetch), tea.WithAltScreen()).Run()
	if err != nil {
		return -1, err
	}
	m := final.(DeviceListModel)
	if m.err != nil {
		return -1, m.err
	}
	return m.Selected(), nil
}
