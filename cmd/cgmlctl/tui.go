package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	signalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// dispatchMsg is sent once per driver.RunOptions.OnDispatch callback.
type dispatchMsg struct {
	signal  string
	current string
}

// doneMsg is sent once Run returns, carrying its outcome.
type doneMsg struct {
	timedOut bool
	err      error
}

// progressModel renders a scrolling trace of dispatched signals while a
// Run proceeds on a background goroutine (spec_full.md §2 C11's
// "bubbletea/lipgloss progress view").
type progressModel struct {
	title  string
	lines  []string
	finished bool
	err      error
	timedOut bool
}

func newProgressModel(title string) *progressModel {
	return &progressModel{title: title}
}

func (m *progressModel) Init() tea.Cmd { return nil }

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.KeyMsg:
		if ev.String() == "ctrl+c" || ev.String() == "q" {
			return m, tea.Quit
		}
	case dispatchMsg:
		m.lines = append(m.lines, fmt.Sprintf("%s -> %s", signalStyle.Render(ev.signal), stateStyle.Render(ev.current)))
		return m, nil
	case doneMsg:
		m.finished = true
		m.err = ev.err
		m.timedOut = ev.timedOut
		return m, tea.Quit
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n\n")
	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.finished {
		switch {
		case m.err != nil:
			b.WriteString(failStyle.Render(fmt.Sprintf("\nrun failed: %v\n", m.err)))
		case m.timedOut:
			b.WriteString(failStyle.Render("\nrun timed out\n"))
		default:
			b.WriteString(doneStyle.Render("\nrun completed\n"))
		}
	} else {
		b.WriteString("\n(press q to detach; the run keeps going in the background)\n")
	}
	return b.String()
}
