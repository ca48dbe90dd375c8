// Package watch renders a live terminal view of a device's health values.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(24)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Source reads a health document: a mapping from names to value
// records holding at least "title" and "value".
type Source func() (map[string]any, error)

type healthMsg struct {
	doc map[string]any
	err error
	at  time.Time
}

type tickMsg struct{}

// Model is the bubbletea model of the health view.
type Model struct {
	title    string
	source   Source
	keys     []string
	interval time.Duration

	spinner spinner.Model
	doc     map[string]any
	err     error
	updated time.Time
	polls   int
}

// New returns a model polling source every interval and showing the
// given keys, in order. With no keys every value is shown, sorted.
func New(title string, source Source, keys []string, interval time.Duration) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return &Model{
		title:    title,
		source:   source,
		keys:     keys,
		interval: interval,
		spinner:  s,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll)
}

func (m *Model) poll() tea.Msg {
	doc, err := m.source()
	return healthMsg{doc: doc, err: err, at: time.Now()}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case healthMsg:
		m.polls++
		m.err = msg.err
		if msg.err == nil {
			m.doc = msg.doc
			m.updated = msg.at
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })

	case tickMsg:
		return m, m.poll

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.doc == nil {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.spinner.View())
			b.WriteString(" waiting for health data")
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	for _, row := range Rows(m.doc, m.keys) {
		b.WriteString(labelStyle.Render(row.Label))
		b.WriteString(valueStyle.Render(row.Value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("updated %s • every %s • q quit",
		m.updated.Format("15:04:05"), m.interval)))
	return b.String()
}

// Run shows the model until the user quits.
func Run(m *Model, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
