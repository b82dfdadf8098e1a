package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const actionTimeout = 2 * time.Minute

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	detailStyle = lipgloss.NewStyle().PaddingLeft(2)
)

type doneMsg struct {
	details []string
	err     error
}

type tickMsg time.Time

type model struct {
	title   string
	action  func(context.Context) ([]string, error)
	cancel  context.CancelFunc
	ctx     context.Context
	started time.Time
	elapsed time.Duration
	details []string
	err     error
	done    bool
}

func newModel(title string, action func(context.Context) ([]string, error)) model {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	return model{title: title, action: action, ctx: ctx, cancel: cancel, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	run := func() tea.Msg {
		details, err := m.action(m.ctx)
		return doneMsg{details: details, err: err}
	}
	return tea.Batch(run, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Time(msg).Sub(m.started)
		return m, tick()
	case doneMsg:
		m.cancel()
		m.details = msg.details
		m.err = msg.err
		m.elapsed = time.Since(m.started)
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	elapsed := mutedStyle.Render(m.elapsed.Round(100 * time.Millisecond).String())
	switch {
	case !m.done:
		fmt.Fprintf(&b, "running %s\n", elapsed)
		return b.String()
	case m.err != nil:
		fmt.Fprintf(&b, "%s %s: %v\n", failStyle.Render("FAILED"), elapsed, m.err)
	default:
		fmt.Fprintf(&b, "%s %s\n", okStyle.Render("OK"), elapsed)
	}
	for _, d := range m.details {
		b.WriteString(detailStyle.Render("- "+d) + "\n")
	}
	return b.String()
}

// Run executes action behind a small progress view and returns its result.
// ctrl+c cancels the action's context.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	final, err := tea.NewProgram(newModel(title, action)).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
