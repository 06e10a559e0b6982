package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ordertransfer/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ordertransfer/internal/backend"
	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/config"
	"github.com/MrJamesThe3rd/ordertransfer/internal/expiry"
	"github.com/MrJamesThe3rd/ordertransfer/internal/notify"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

type model struct {
	transferService *transfer.Service
	sweeper         *expiry.Sweeper
	accounts        view.Accounts
	orders          view.OrderLister

	caller      transfer.Caller
	currentView View

	signInView   view.SignInModel
	requestsView view.RequestsModel
	ordersView   view.OrdersModel
	sweepView    view.SweepModel
}

type View int

const (
	ViewMenu     View = 0
	ViewSignIn   View = 1
	ViewRequests View = 2
	ViewOrders   View = 3
	ViewSweep    View = 4
)

func initialModel(be *backend.Backend, cfg *config.Config, notifier transfer.Notifier) model {
	clk := clock.NewSystem()

	transferSvc := transfer.NewService(be.Orders, be.Accounts, clk,
		transfer.WithSettings(transfer.Settings{
			Enabled:      cfg.Transfer.Enabled,
			Title:        cfg.Transfer.Title,
			Description:  cfg.Transfer.Description,
			Instructions: cfg.Transfer.Instructions,
		}),
		transfer.WithNotifier(notifier),
	)

	return model{
		transferService: transferSvc,
		sweeper:         expiry.NewSweeper(transferSvc, clk, cfg.Transfer.ExpiryThreshold),
		accounts:        be.Accounts,
		orders:          be.Orders,
		currentView:     ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				if !m.caller.Authenticated() {
					m.currentView = ViewSignIn
					m.signInView = view.NewSignInModel(m.accounts)

					return m, m.signInView.Init()
				}

				return m.openRequests()
			case "2":
				m.currentView = ViewOrders
				m.ordersView = view.NewOrdersModel(m.orders)

				return m, m.ordersView.Init()
			case "3":
				m.currentView = ViewSweep
				m.sweepView = view.NewSweepModel(m.sweeper)

				return m, m.sweepView.Init()
			case "4":
				m.caller = transfer.Caller{}
				return m, nil
			}
		}
	case view.SignedInMsg:
		m.caller = msg.Caller
		return m.openRequests()
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewSignIn:
		var newModel tea.Model
		newModel, cmd = m.signInView.Update(msg)
		m.signInView = newModel.(view.SignInModel)
	case ViewRequests:
		var newModel tea.Model
		newModel, cmd = m.requestsView.Update(msg)
		m.requestsView = newModel.(view.RequestsModel)
	case ViewOrders:
		var newModel tea.Model
		newModel, cmd = m.ordersView.Update(msg)
		m.ordersView = newModel.(view.OrdersModel)
	case ViewSweep:
		var newModel tea.Model
		newModel, cmd = m.sweepView.Update(msg)
		m.sweepView = newModel.(view.SweepModel)
	}

	return m, cmd
}

func (m model) openRequests() (tea.Model, tea.Cmd) {
	m.currentView = ViewRequests
	m.requestsView = view.NewRequestsModel(m.transferService, m.caller)

	return m, m.requestsView.Init()
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		signedIn := "not signed in"
		if m.caller.Authenticated() {
			signedIn = "signed in as " + m.caller.Email
		}

		return lipgloss.NewStyle().Padding(2).Render(
			"Order Transfer Console (" + signedIn + ")\n\n" +
				"1. My Transfer Requests\n" +
				"2. Browse Orders\n" +
				"3. Expire Overdue Transfers\n" +
				"4. Sign Out\n\n" +
				"q. Quit",
		)
	case ViewSignIn:
		return m.signInView.View()
	case ViewRequests:
		return m.requestsView.View()
	case ViewOrders:
		return m.ordersView.View()
	case ViewSweep:
		return m.sweepView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; service logs go to a file.
	logFile, err := tea.LogToFile("ordertransfer-tui.log", "tui")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	be, err := backend.Open(context.Background(), cfg, clock.NewSystem())
	if err != nil {
		slog.Error("failed to open backend", "error", err)
		os.Exit(1)
	}
	defer be.Close()

	var notifier transfer.Notifier = notify.LogNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kn.Close()

		notifier = kn
	}

	p := tea.NewProgram(initialModel(be, cfg, notifier))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
