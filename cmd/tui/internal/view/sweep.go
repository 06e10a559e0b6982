package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ordertransfer/internal/expiry"
)

// SweepModel runs one expiry sweep on entry and shows its outcome.
type SweepModel struct {
	CommonModel
	sweeper *expiry.Sweeper

	running bool
	result  expiry.Result
	err     error
}

func NewSweepModel(sweeper *expiry.Sweeper) SweepModel {
	return SweepModel{sweeper: sweeper, running: true}
}

func (m SweepModel) Title() string     { return "Expire Overdue Transfers" }
func (m SweepModel) ShortHelp() string { return "Esc: back | r: run again" }

func (m SweepModel) Init() tea.Cmd {
	return m.sweepCmd()
}

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sweepDoneMsg:
		m.running = false
		m.result = msg.result
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			if m.running {
				return m, nil
			}
			m.running = true
			return m, m.sweepCmd()
		}
	}

	return m, nil
}

func (m SweepModel) View() string {
	style := lipgloss.NewStyle().Padding(2)

	if m.running {
		return style.Render("Checking for overdue transfers...")
	}

	if m.err != nil {
		return style.Render(fmt.Sprintf("Error: %v\n\n%s", m.err, m.ShortHelp()))
	}

	return style.Render(fmt.Sprintf(
		"%s\n\nChecked: %d\nExpired: %s\nFailed:  %d\n\n%s",
		m.Title(),
		m.result.Checked,
		activeStyle(fmt.Sprint(m.result.Expired)),
		m.result.Failed,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	))
}

type sweepDoneMsg struct {
	result expiry.Result
	err    error
}

func (m SweepModel) sweepCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.sweeper.CheckExpiredOrderTransfers(ctx)
		return sweepDoneMsg{result: res, err: err}
	}
}
