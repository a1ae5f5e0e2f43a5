// Package tui implements a realtime playback monitor: transport state,
// master volume/pitch, and per-track mute/unmute, driven by a
// playback.Engine. It has no per-track gain control and shows no
// crossfade progress.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Servus-Altissimi/Boomie/pkg/playback"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
)

// Model is the playback monitor's TUI model.
type Model struct {
	Engine      *playback.Engine
	Arrangement *score.Arrangement
	SampleRate  float64

	Width, Height int

	TrackCursor int
	StatusMsg   string
}

// NewModel builds a monitor for an already-loaded, already-playing
// engine.
func NewModel(engine *playback.Engine, arrangement *score.Arrangement, sampleRate float64) Model {
	return Model{
		Engine:      engine,
		Arrangement: arrangement,
		SampleRate:  sampleRate,
		Width:       100,
		Height:      24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(16_666_666, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.Engine.Stop()
		m.Engine.Close()
		return m, tea.Quit

	case " ":
		if m.Engine.GetPlaybackState() == playback.Playing {
			m.Engine.Pause()
		} else {
			m.Engine.Resume()
		}

	case "s":
		m.Engine.Stop()
		m.StatusMsg = "Stopped"

	case "l":
		m.Engine.SetLoopEnabled(true)
		m.StatusMsg = "Loop on"

	case "L":
		m.Engine.SetLoopEnabled(false)
		m.StatusMsg = "Loop off"

	case "up":
		if m.TrackCursor > 0 {
			m.TrackCursor--
		}

	case "down":
		if m.TrackCursor < len(m.Arrangement.Tracks)-1 {
			m.TrackCursor++
		}

	case "m":
		if name := m.currentTrackName(); name != "" {
			m.Engine.SetTrackEnabled(name, false)
		}

	case "M":
		if name := m.currentTrackName(); name != "" {
			m.Engine.SetTrackEnabled(name, true)
		}

	case "+", "=":
		m.Engine.SetMasterVolume(m.Engine.GetMasterVolume() + 0.1)

	case "-", "_":
		m.Engine.SetMasterVolume(m.Engine.GetMasterVolume() - 0.1)

	case "[":
		m.Engine.SetMasterPitch(m.Engine.GetMasterPitch() - 0.05)

	case "]":
		m.Engine.SetMasterPitch(m.Engine.GetMasterPitch() + 0.05)
	}

	return m, nil
}

func (m Model) currentTrackName() string {
	if m.TrackCursor < 0 || m.TrackCursor >= len(m.Arrangement.Tracks) {
		return ""
	}
	return m.Arrangement.Tracks[m.TrackCursor].Track.Name
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render("BOOMIE")

	state := "STOPPED"
	switch m.Engine.GetPlaybackState() {
	case playback.Playing:
		state = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("PLAYING")
	case playback.Paused:
		state = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("PAUSED")
	}

	pos := m.Engine.GetPlaybackPosition()
	seconds := float64(pos) / m.SampleRate

	b.WriteString(fmt.Sprintf("%s  %s  %.2fs / %.2fs  vol %.1f  pitch %.2f\n\n",
		title, state, seconds, m.Arrangement.TotalLength,
		m.Engine.GetMasterVolume(), m.Engine.GetMasterPitch()))

	for i, placed := range m.Arrangement.Tracks {
		cursor := "  "
		if i == m.TrackCursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-16s start=%.2fs len=%.2fs", cursor, placed.Track.Name, placed.StartTime, placed.Track.Length)
		style := lipgloss.NewStyle()
		if i == m.TrackCursor {
			style = style.Bold(true).Foreground(lipgloss.Color("14"))
		}
		b.WriteString(style.Render(line) + "\n")
	}

	b.WriteString("\n [Space]Pause/Resume [S]Stop [L/shift+L]Loop on/off [↑↓]Track [M/shift+M]Mute/Unmute [+/-]Volume [[/]]Pitch [Q]Quit")
	if m.StatusMsg != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.StatusMsg))
	}

	return b.String()
}
