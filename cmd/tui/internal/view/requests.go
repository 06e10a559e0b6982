package view

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

// RequestsModel lists the transfers awaiting the signed-in account and lets
// it accept or decline them.
type RequestsModel struct {
	CommonModel
	transfers *transfer.Service
	caller    transfer.Caller

	table    table.Model
	requests []transfer.Request
	loading  bool
	err      error
	status   string
}

func NewRequestsModel(transfers *transfer.Service, caller transfer.Caller) RequestsModel {
	columns := []table.Column{
		{Title: "Order", Width: 8},
		{Title: "Date", Width: 17},
		{Title: "Status", Width: 10},
		{Title: "Total", Width: 10},
		{Title: "Items", Width: 6},
		{Title: "From", Width: 10},
	}

	return RequestsModel{
		transfers: transfers,
		caller:    caller,
		table:     newTable(columns),
		loading:   true,
	}
}

func (m RequestsModel) Title() string { return "Transfer Requests" }
func (m RequestsModel) ShortHelp() string {
	return "Esc: back | a: accept | d: decline | r: refresh"
}

func (m RequestsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RequestsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRequestsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.requests = msg.requests
		m.refreshTable()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.summary
		}
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			return m, m.actCmd(transfer.ActionAccept)
		case "d":
			return m, m.actCmd(transfer.ActionRefuse)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m RequestsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transfer requests...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Signed in as %s | %d pending", activeStyle(m.caller.Email), len(m.requests))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *RequestsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.requests))
	for _, req := range m.requests {
		from := "guest"
		if req.Record.SourceAccountID != nil {
			from = strconv.FormatInt(*req.Record.SourceAccountID, 10)
		}

		rows = append(rows, table.Row{
			FormatOrderNumber(req.Order.ID),
			FormatDate(req.Order.CreatedAt),
			string(req.Order.Status),
			FormatAmount(req.Order.Total),
			strconv.Itoa(req.Order.ItemCount()),
			from,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadRequestsMsg struct {
	requests []transfer.Request
	err      error
}

func (m RequestsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		reqs, err := m.transfers.Requests(ctx, m.caller)
		return loadRequestsMsg{requests: reqs, err: err}
	}
}

type actionDoneMsg struct {
	summary string
	err     error
}

func (m RequestsModel) actCmd(action string) tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.requests) {
		return nil
	}

	orderID := m.requests[idx].Order.ID

	fn := m.transfers.Accept
	verb := "Accepted"
	if action == transfer.ActionRefuse {
		fn = m.transfers.Decline
		verb = "Declined"
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := fn(ctx, orderID, m.caller); err != nil {
			return actionDoneMsg{err: describeActionError(err)}
		}

		return actionDoneMsg{summary: fmt.Sprintf("%s order %s", verb, FormatOrderNumber(orderID))}
	}
}

func describeActionError(err error) error {
	switch {
	case errors.Is(err, transfer.ErrInvalidState):
		return errors.New("transfer is no longer awaiting a decision")
	case errors.Is(err, transfer.ErrUnauthorized):
		return errors.New("this transfer is not addressed to you")
	default:
		return err
	}
}
