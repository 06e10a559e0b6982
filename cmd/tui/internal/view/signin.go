package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
}

// SignedInMsg carries the account the console acts as.
type SignedInMsg struct {
	Caller transfer.Caller
}

type SignInModel struct {
	CommonModel
	accounts Accounts

	form      *huh.Form
	submitted bool
	status    string
}

func NewSignInModel(accounts Accounts) SignInModel {
	return SignInModel{accounts: accounts, form: newSignInForm()}
}

func newSignInForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Account email").
				Placeholder("bob@example.com").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("email cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m SignInModel) Title() string     { return "Sign In" }
func (m SignInModel) ShortHelp() string { return "Enter: sign in | Esc: back" }

func (m SignInModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SignInModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signInFailedMsg:
		m.status = msg.err.Error()
		m.submitted = false
		m.form = newSignInForm()

		return m, m.form.Init()
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted || m.submitted {
		return m, cmd
	}

	m.submitted = true

	return m, m.signInCmd(strings.TrimSpace(m.form.GetString("email")))
}

func (m SignInModel) View() string {
	content := m.form.View()
	if m.status != "" {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(m.Title() + "\n\n" + content)
}

type signInFailedMsg struct {
	err error
}

func (m SignInModel) signInCmd(email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		acc, err := m.accounts.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return signInFailedMsg{err: fmt.Errorf("no account for %s", email)}
			}

			return signInFailedMsg{err: err}
		}

		return SignedInMsg{Caller: transfer.Caller{AccountID: acc.ID, Email: acc.Email}}
	}
}
