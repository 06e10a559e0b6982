package view

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

type OrderLister interface {
	List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error)
}

var orderStatusFilters = []order.Status{
	"",
	order.StatusOnHold,
	order.StatusPending,
	order.StatusProcessing,
	order.StatusCancelled,
}

type OrdersModel struct {
	CommonModel
	orders OrderLister

	table  table.Model
	list   []*order.Order
	filter order.ListFilter

	// Filter cycling
	statusFilterIdx int
	transfersOnly   bool

	loading bool
	err     error
}

func NewOrdersModel(orders OrderLister) OrdersModel {
	columns := []table.Column{
		{Title: "Order", Width: 8},
		{Title: "Date", Width: 17},
		{Title: "Status", Width: 11},
		{Title: "Total", Width: 10},
		{Title: "Transfer", Width: 18},
		{Title: "Destination", Width: 30},
	}

	return OrdersModel{
		orders:  orders,
		table:   newTable(columns),
		loading: true,
	}
}

func (m OrdersModel) Title() string { return "Orders" }
func (m OrdersModel) ShortHelp() string {
	return "Esc: back | s: status filter | t: transfers only | r: refresh"
}

func (m OrdersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m OrdersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadOrdersMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.list = msg.orders
		m.refreshTable()
		return m, nil

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
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(orderStatusFilters)
			m.applyFilter()
			return m, m.loadCmd()
		case "t":
			m.transfersOnly = !m.transfersOnly
			m.applyFilter()
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m OrdersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading orders...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabel := "All"
	if s := orderStatusFilters[m.statusFilterIdx]; s != "" {
		statusLabel = string(s)
	}

	methodLabel := "All"
	if m.transfersOnly {
		methodLabel = "Transfer gateway"
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [t] Payment: %s",
		activeStyle(statusLabel),
		activeStyle(methodLabel),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *OrdersModel) applyFilter() {
	if s := orderStatusFilters[m.statusFilterIdx]; s != "" {
		m.filter.Status = new(s)
	} else {
		m.filter.Status = nil
	}

	if m.transfersOnly {
		m.filter.PaymentMethod = new(transfer.GatewayID)
	} else {
		m.filter.PaymentMethod = nil
	}
}

func (m *OrdersModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, o := range m.list {
		var state, dest string
		if rec, ok := transfer.RecordFromOrder(o); ok {
			state = string(rec.Status)
			if rec.Destination != nil {
				dest = rec.Destination.Address()
			}
		}

		rows = append(rows, table.Row{
			FormatOrderNumber(o.ID),
			FormatDate(o.CreatedAt),
			string(o.Status),
			FormatAmount(o.Total),
			state,
			dest,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadOrdersMsg struct {
	orders []*order.Order
	err    error
}

func (m OrdersModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		orders, err := m.orders.List(ctx, filter)
		return loadOrdersMsg{orders: orders, err: err}
	}
}
