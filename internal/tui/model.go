// Package tui provides the Bubble Tea game interface.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/guessup/internal/config"
	"github.com/verte-zerg/guessup/internal/deck"
	"github.com/verte-zerg/guessup/internal/env"
	"github.com/verte-zerg/guessup/internal/sampler"
	"github.com/verte-zerg/guessup/internal/session"
	"github.com/verte-zerg/guessup/internal/sound"
)

type phase int

const (
	phasePicker phase = iota
	phasePlaying
	phaseSummary
)

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	unselectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	cardStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	subtextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	countdownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	timerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	urgentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	correctStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	wrongStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// sessionMsg asks the UI to re-read the session snapshot. The session
// machine sends it from its notify callback.
type sessionMsg struct{}

// Model implements the Bubble Tea game UI.
type Model struct {
	decks    []deck.Deck
	settings config.Settings
	recorder session.Recorder
	caps     env.Capabilities
	sounds   sound.Player
	send     func(tea.Msg)

	phase       phase
	cursor      int
	durationIdx int
	errMsg      string

	machine *session.Machine
	snap    session.Snapshot

	width  int
	height int
}

// NewModel constructs the game UI over the displayed decks.
func NewModel(decks []deck.Deck, settings config.Settings, recorder session.Recorder, caps env.Capabilities, sounds sound.Player) *Model {
	m := &Model{
		decks:       decks,
		settings:    settings,
		recorder:    recorder,
		caps:        caps,
		sounds:      sounds,
		durationIdx: -1,
	}
	for i, d := range config.DurationOptions {
		if d == settings.Timer {
			m.durationIdx = i
		}
	}
	return m
}

// SetSend wires the running program's Send so session callbacks can wake
// the UI. It must be called before the first round starts.
func (m *Model) SetSend(send func(tea.Msg)) {
	m.send = send
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case sessionMsg:
		if m.machine == nil {
			return m, nil
		}
		m.snap = m.machine.Snapshot()
		if m.snap.State == session.StateEnded {
			m.phase = phaseSummary
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	switch m.phase {
	case phasePicker:
		return m.handlePickerKey(msg)
	case phasePlaying:
		return m.handlePlayingKey(msg)
	case phaseSummary:
		return m.handleSummaryKey(msg)
	}
	return m, nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.decks)-1 {
			m.cursor++
		}
		return m, nil
	case "left", "h":
		m.cycleDuration(-1)
		return m, nil
	case "right", "l":
		m.cycleDuration(1)
		return m, nil
	case "enter", " ":
		m.startRound()
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handlePlayingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "right", "up", "enter":
		m.machine.Tap(session.ActionCorrect)
		return m, nil
	case "left", "down":
		m.machine.Tap(session.ActionWrong)
		return m, nil
	case " ":
		switch m.snap.State {
		case session.StateRunning:
			m.machine.Pause()
		case session.StatePaused:
			m.machine.Resume()
		}
		m.snap = m.machine.Snapshot()
		return m, nil
	case "esc", "e":
		m.machine.End()
		m.snap = m.machine.Snapshot()
		if m.snap.State == session.StateEnded {
			m.phase = phaseSummary
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleSummaryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "enter", "r":
		m.startRound()
		return m, nil
	case "d", "esc":
		m.machine = nil
		m.snap = session.Snapshot{}
		m.phase = phasePicker
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.machine != nil {
		m.machine.Cleanup()
		m.machine = nil
	}
	return m, tea.Quit
}

func (m *Model) cycleDuration(delta int) {
	count := len(config.DurationOptions)
	if count == 0 {
		return
	}
	if m.durationIdx < 0 {
		m.durationIdx = 0
	} else {
		m.durationIdx = (m.durationIdx + delta + count) % count
	}
	m.settings.Timer = config.DurationOptions[m.durationIdx]
}

func (m *Model) startRound() {
	if len(m.decks) == 0 {
		m.errMsg = "no decks available"
		return
	}
	if m.cursor >= len(m.decks) {
		m.cursor = len(m.decks) - 1
	}
	if m.machine != nil {
		m.machine.Cleanup()
	}
	machine := session.New(session.Config{
		Deck:     m.decks[m.cursor],
		Settings: m.settings,
		Caps:     m.caps,
		Sounds:   m.sounds,
		Recorder: m.recorder,
		Notify: func() {
			if m.send != nil {
				m.send(sessionMsg{})
			}
		},
	})
	if err := machine.Start(); err != nil {
		if err == sampler.ErrEmptyDeck {
			m.errMsg = fmt.Sprintf("deck %q has no cards", m.decks[m.cursor].Name)
		} else {
			m.errMsg = err.Error()
		}
		machine.Cleanup()
		return
	}
	m.errMsg = ""
	m.machine = machine
	m.snap = machine.Snapshot()
	m.phase = phasePlaying
}

// View implements tea.Model.
func (m *Model) View() string {
	var content, footer string
	switch m.phase {
	case phasePicker:
		content = m.renderPicker()
		footer = "Deck: up/down  Time: left/right  Play: enter  Quit: q"
	case phasePlaying:
		content = m.renderPlaying()
		switch m.snap.State {
		case session.StatePaused:
			footer = "Resume: space  End: esc  Quit: q"
		case session.StateCountdown:
			footer = "Get ready..."
		default:
			footer = "Got it: right  Pass: left  Pause: space  End: esc"
		}
	case phaseSummary:
		content = m.renderSummary()
		footer = "Play again: enter  Decks: d  Quit: q"
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footerStyle.Render(footer))
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + footerLine
}

func (m *Model) renderPicker() string {
	lines := []string{titleStyle.Render("Pick a deck"), ""}
	if len(m.decks) == 0 {
		lines = append(lines, unselectedStyle.Render("No decks found."))
	}
	for i, d := range m.decks {
		label := fmt.Sprintf("%s (%d cards)", d.Name, len(d.Cards))
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+label))
		} else {
			lines = append(lines, unselectedStyle.Render("  "+label))
		}
	}
	lines = append(lines, "", timerStyle.Render(fmt.Sprintf("Round length: %s", formatClock(m.settings.Timer))))
	if m.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPlaying() string {
	switch m.snap.State {
	case session.StateCountdown:
		return countdownStyle.Render(fmt.Sprintf("%d", m.snap.CountdownValue))
	case session.StatePaused:
		lines := []string{
			titleStyle.Render("Paused"),
			"",
			timerStyle.Render(formatClock(m.snap.TimeRemaining) + " left"),
		}
		return strings.Join(lines, "\n")
	default:
		return m.renderRunning()
	}
}

func (m *Model) renderRunning() string {
	clock := timerStyle.Render(formatClock(m.snap.TimeRemaining))
	if m.snap.TimeRemaining <= 10 {
		clock = urgentStyle.Render(formatClock(m.snap.TimeRemaining))
	}

	text := m.snap.CurrentCard.Text
	sub := m.snap.CurrentCard.Subtext
	if m.width > 4 {
		text = truncate(text, m.width-4)
		sub = truncate(sub, m.width-4)
	}
	lines := []string{clock, "", cardStyle.Render(text)}
	if sub != "" {
		lines = append(lines, subtextStyle.Render(sub))
	}
	lines = append(lines, "", m.renderScore())
	if m.snap.Feedback.Visible {
		lines = append(lines, "", m.renderFeedback())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderScore() string {
	score := fmt.Sprintf("Got %d  Passed %d", m.snap.CorrectCount, m.snap.WrongCount)
	if m.snap.TiltActive {
		score += "  [tilt]"
	}
	return timerStyle.Render(score)
}

func (m *Model) renderFeedback() string {
	if m.snap.Feedback.Action == session.ActionCorrect {
		return correctStyle.Render("GOT IT!")
	}
	return wrongStyle.Render("PASS")
}

func (m *Model) renderSummary() string {
	lines := []string{titleStyle.Render("Time's up!"), ""}
	if rec := m.snap.Record; rec != nil {
		lines = append(lines,
			fmt.Sprintf("Deck       %s", rec.DeckName),
			fmt.Sprintf("Got        %d", len(rec.CorrectWords)),
			fmt.Sprintf("Passed     %d", len(rec.SkippedWords)),
			fmt.Sprintf("Accuracy   %d%%", rec.Accuracy),
		)
		if len(rec.CorrectWords) > 0 {
			lines = append(lines, "", correctStyle.Render("Guessed:"))
			for _, w := range rec.CorrectWords {
				lines = append(lines, "  "+w)
			}
		}
		if len(rec.SkippedWords) > 0 {
			lines = append(lines, "", wrongStyle.Render("Passed:"))
			for _, w := range rec.SkippedWords {
				lines = append(lines, "  "+w)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
