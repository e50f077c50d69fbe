// Package console provides a Bubble Tea emulation of the indicator strip and its buttons.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/rock/internal/indicator"
	"github.com/verte-zerg/rock/internal/model"
	"github.com/verte-zerg/rock/internal/tracker"
)

const (
	frameInterval = 50 * time.Millisecond
	ledGlyph      = "●"
	ledCellWidth  = 5
)

// StatusSource exposes the tracker state shown in the footer.
type StatusSource interface {
	Snapshot() tracker.Snapshot
}

// Button is the primary button the console presses.
type Button interface {
	Press()
	Release()
}

type frameMsg time.Time

type releaseMsg struct{}

var (
	ledStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#6B5520")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#9C7A2C")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C451")).Bold(true),
	}
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	motionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// Model implements the Bubble Tea console.
type Model struct {
	board  *indicator.Board
	status StatusSource
	button Button
	post   func(tracker.Event) bool

	holdTime time.Duration
	keys     keyMap
	help     help.Model

	width   int
	height  int
	now     time.Time
	holding bool
	motion  bool
}

// NewModel wires the console to a board, the tracker state and the device loop.
func NewModel(board *indicator.Board, status StatusSource, button Button, post func(tracker.Event) bool, holdTime time.Duration) *Model {
	return &Model{
		board:    board,
		status:   status,
		button:   button,
		post:     post,
		holdTime: holdTime,
		keys:     defaultKeys,
		help:     help.New(),
		now:      time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return frame()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case frameMsg:
		m.now = time.Time(msg)
		return m, frame()
	case releaseMsg:
		m.holding = false
		m.button.Release()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case m.holding:
		// The button is down until the hold completes.
		return nil
	case key.Matches(msg, m.keys.Press):
		m.button.Press()
		m.button.Release()
	case key.Matches(msg, m.keys.Hold):
		m.holding = true
		m.button.Press()
		return tea.Tick(m.holdTime, func(time.Time) tea.Msg {
			return releaseMsg{}
		})
	case key.Matches(msg, m.keys.Next):
		m.post(tracker.EventSecondaryPress)
	case key.Matches(msg, m.keys.Motion):
		m.motion = !m.motion
		if m.motion {
			m.post(tracker.EventMotionDetected)
		} else {
			m.post(tracker.EventMotionCeased)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Center, m.renderStrip(), "", m.renderLabels())
	footer := m.renderFooter()
	helpView := m.help.View(m.keys)
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer + "\n" + helpView
	}
	if m.height < 5 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 2
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, helpView)
	return body + "\n" + footerLine + "\n" + helpLine
}

func (m *Model) renderStrip() string {
	leds := m.board.Snapshot()
	cells := make([]string, 0, len(leds))
	for _, led := range leds {
		cells = append(cells, cell(ledStyle(led.Level(m.now)).Render(ledGlyph)))
	}
	return strings.Join(cells, "")
}

func (m *Model) renderLabels() string {
	cells := make([]string, 0, model.DaysPerWeek)
	for pos := 1; pos <= model.DaysPerWeek; pos++ {
		cells = append(cells, cell(labelStyle.Render(fmt.Sprintf("%d", pos))))
	}
	return strings.Join(cells, "")
}

func (m *Model) renderFooter() string {
	snap := m.status.Snapshot()
	if snap.Day.DayNum == 0 {
		return footerStyle.Render("Loading")
	}
	segments := []string{fmt.Sprintf("Week %d · Day %d", snap.Day.WeekNum, snap.Day.DayNum)}
	switch {
	case snap.Meditating && snap.Session != nil:
		segments = append(segments, "Meditating "+formatElapsed(m.now.Sub(snap.Session.StartedAt)))
	case snap.Day.Done:
		segments = append(segments, "Done")
	default:
		segments = append(segments, "Waiting")
	}
	segments = append(segments, fmt.Sprintf("Sessions %d", len(snap.Day.Sessions)))
	text := strings.Join(segments, "  ")
	if m.width > 0 {
		text = runewidth.Truncate(text, m.width, "…")
	}
	footer := footerStyle.Render(text)
	if m.motion {
		footer += "  " + motionStyle.Render("motion")
	}
	return footer
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// cell centers s in a fixed-width column.
func cell(s string) string {
	w := lipgloss.Width(s)
	if w >= ledCellWidth {
		return s
	}
	left := (ledCellWidth - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", ledCellWidth-w-left)
}

func ledStyle(level float64) lipgloss.Style {
	idx := int(level*float64(len(ledStyles)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ledStyles) {
		idx = len(ledStyles) - 1
	}
	return ledStyles[idx]
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
