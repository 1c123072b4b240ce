// Package tui provides the interactive device browser behind
// `dronebeat devices -i`. It exists for one job: finding the device_id
// of the microphone near the speakers.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dronebeat/internal/audio"
	"dronebeat/internal/config"
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

	mutedStyle = lipgloss.NewStyle().
			Faint(true)
)

// DeviceBrowserModel is the Bubble Tea model for browsing host audio
// devices. Every device is listed, but only input-capable ones can be
// selected; output-only hardware cannot hear the music.
type DeviceBrowserModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error

	// chosen is set when the user confirms a device; the caller prints
	// the matching configuration after the program exits.
	chosen *audio.Device
}

// NewDeviceBrowserModel creates a browser model; devices are fetched on
// Init.
func NewDeviceBrowserModel() DeviceBrowserModel {
	return DeviceBrowserModel{}
}

// Init initializes the Bubble Tea model
func (m DeviceBrowserModel) Init() tea.Cmd {
	return fetchDevices
}

// fetchDevices queries the PortAudio device table
func fetchDevices() tea.Msg {
	devices, err := audio.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// Update handles input and updates the model
func (m DeviceBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Initialize the viewport with the window size
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true

			// If we already have devices, render them now
			if len(m.devices) > 0 {
				m.viewport.SetContent(m.renderDevices())
			}
		} else {
			// Just update viewport dimensions
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		// Start on the first device that can actually capture.
		for i, device := range m.devices {
			if device.MaxInputChannels > 0 {
				m.selectedIndex = i
				break
			}
		}
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))) {
			return m, tea.Quit
		}

		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.devices) > 0 && m.devices[m.selectedIndex].MaxInputChannels > 0 {
				device := m.devices[m.selectedIndex]
				m.chosen = &device
				return m, tea.Quit
			}
		}
	}

	// Handle viewport updates
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m DeviceBrowserModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	title := titleStyle.Render("Audio Capture Devices")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list
func (m DeviceBrowserModel) renderDevices() string {
	var sb strings.Builder

	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	for i, device := range m.devices {
		deviceInfo := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, deviceKind(device))
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		switch {
		case i == m.selectedIndex:
			deviceInfo = highlightStyle.Render(deviceInfo)
		case device.MaxInputChannels == 0:
			deviceInfo = mutedStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

func deviceKind(device audio.Device) string {
	switch {
	case device.MaxInputChannels > 0 && device.MaxOutputChannels > 0:
		return "Input/Output"
	case device.MaxInputChannels > 0:
		return "Input"
	case device.MaxOutputChannels > 0:
		return "Output"
	}
	return "Unknown"
}

// StartDeviceBrowser launches the browser and, when the user selects a
// device, prints the configuration that points capture at it.
func StartDeviceBrowser() error {
	p := tea.NewProgram(
		NewDeviceBrowserModel(),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}

	model, ok := final.(DeviceBrowserModel)
	if !ok {
		return nil
	}
	if model.err != nil {
		return model.err
	}
	if model.chosen != nil {
		fmt.Printf("\nDevice %d: %s\n", model.chosen.ID, model.chosen.Name)
		fmt.Printf("Use --device %d, or set audio.device_id: %d in %s\n",
			model.chosen.ID, model.chosen.ID, config.DefaultConfigFile)
	}
	return nil
}
