// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/guessup/internal/history"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	guessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea history browser: a table of retained
// rounds with a per-round word detail view.
type Model struct {
	records []history.Record

	rounds table.Model
	detail viewport.Model

	showDetail bool

	width  int
	height int
}

// NewModel constructs a history browser. Records are expected newest
// first, the order the store lists them.
func NewModel(records []history.Record) *Model {
	m := &Model{records: records}
	m.rounds = buildRoundsTable(records, 0, 1)
	m.rounds.Focus()
	m.detail = viewport.New(0, 0)
	return m
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
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.showDetail {
			return m.updateDetail(msg)
		}
		return m.updateRounds(msg)
	}
	return m, nil
}

func (m *Model) updateRounds(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if len(m.records) == 0 {
			return m, nil
		}
		m.showDetail = true
		m.detail.SetContent(renderDetail(m.selectedRecord(), m.width))
		m.detail.GotoTop()
		return m, nil
	case "g", "home":
		m.rounds.GotoTop()
		return m, nil
	case "G", "end":
		m.rounds.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.rounds, cmd = m.rounds.Update(msg)
	return m, cmd
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "backspace":
		m.showDetail = false
		return m, nil
	case "g", "home":
		m.detail.GotoTop()
		return m, nil
	case "G", "end":
		m.detail.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	var body, footer string
	if m.showDetail {
		body = m.detail.View()
		footer = "Back: esc  Scroll: up/down  Quit: q"
	} else if len(m.records) == 0 {
		body = "No games played yet."
		footer = "Quit: q"
	} else {
		body = mutedStyle.Render(m.rounds.View())
		footer = "Detail: enter  Scroll: up/down  Quit: q"
	}
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body = fitLines(body, m.width, bodyHeight)
	return body + "\n" + headerStyle.Render(footer)
}

func (m *Model) selectedRecord() history.Record {
	idx := m.rounds.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return history.Record{}
	}
	return m.records[idx]
}

func (m *Model) updateLayout() {
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.rounds.SetWidth(m.width)
	m.rounds.SetHeight(maxInt(1, bodyHeight-1))
	m.detail.Width = m.width
	m.detail.Height = bodyHeight
	if m.showDetail {
		m.detail.SetContent(renderDetail(m.selectedRecord(), m.width))
	}
}

func buildRoundsTable(records []history.Record, width, height int) table.Model {
	columns := []table.Column{
		{Title: "When", Width: 16},
		{Title: "Deck", Width: 20},
		{Title: "Guessed", Width: 8},
		{Title: "Accuracy", Width: 8},
		{Title: "Duration", Width: 8},
	}
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, table.Row{
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.DeckName,
			fmt.Sprintf("%d/%d", len(rec.CorrectWords), len(rec.CorrectWords)+len(rec.SkippedWords)),
			fmt.Sprintf("%d%%", rec.Accuracy),
			fmt.Sprintf("%d:%02d", rec.Duration/60, rec.Duration%60),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height)),
	)
	t.SetWidth(width)
	t.SetStyles(roundsTableStyles())
	return t
}

func roundsTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func renderDetail(rec history.Record, width int) string {
	lines := []string{
		titleStyle.Render(rec.DeckName),
		headerStyle.Render(rec.StartedAt.Local().Format("2006-01-02 15:04")),
		"",
		fmt.Sprintf("Got %d  Passed %d  Accuracy %d%%", len(rec.CorrectWords), len(rec.SkippedWords), rec.Accuracy),
	}
	if len(rec.CorrectWords) > 0 {
		lines = append(lines, "", guessStyle.Render("Guessed:"))
		for _, w := range rec.CorrectWords {
			lines = append(lines, "  "+w)
		}
	}
	if len(rec.SkippedWords) > 0 {
		lines = append(lines, "", passStyle.Render("Passed:"))
		for _, w := range rec.SkippedWords {
			lines = append(lines, "  "+w)
		}
	}
	return strings.Join(lines, "\n")
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) < width {
			lines[i] = line + strings.Repeat(" ", width-lipgloss.Width(line))
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
