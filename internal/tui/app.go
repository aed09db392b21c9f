package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pokando/pokando/internal/session"
	"github.com/pokando/pokando/pkg/domain"
)

type view int

const (
	viewLogin view = iota
	viewDashboard
)

// Gateway is the part of the API client the login view drives.
type Gateway interface {
	Register(ctx context.Context, form domain.CredentialForm) error
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	DelegatedLoginURL() string
}

// Sessions is the session holder as seen by the UI.
type Sessions interface {
	Store(sess domain.Session) error
	State() session.State
	Profile(ctx context.Context) (*domain.UserProfile, error)
	Clear() error
}

// DelegateFunc runs a delegated (Google) sign-in to completion and returns
// the session the remote service handed back.
type DelegateFunc func(ctx context.Context) (*domain.Session, error)

// App is the root Bubbletea model.
type App struct {
	gateway  Gateway
	sessions Sessions
	delegate DelegateFunc
	keys     keyMap
	view     view
	login    loginModel
	dash     dashboardModel
	width    int
	height   int
}

// NewApp creates the TUI. It opens on the dashboard when a session is
// already stored and on the login form otherwise. delegate may be nil.
func NewApp(gw Gateway, sessions Sessions, delegate DelegateFunc) App {
	a := App{
		gateway:  gw,
		sessions: sessions,
		delegate: delegate,
		keys:     defaultKeyMap(),
		login:    newLoginModel(gw, sessions, delegate),
		dash:     newDashboardModel(sessions),
	}
	if sessions.State() == session.Authenticated {
		a.view = viewDashboard
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.view == viewDashboard {
		return a.dash.Init()
	}
	return a.login.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + help(1) = 3 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 3}
		a.login, _ = a.login.Update(bodyMsg)
		a.dash, _ = a.dash.Update(bodyMsg)
		return a, nil

	case loginResultMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err != nil {
			return a, nil
		}
		a.view = viewDashboard
		a.dash = newDashboardModel(a.sessions)
		a.dash.width, a.dash.height = a.login.width, a.login.height
		return a, a.dash.Init()

	case sessionEndedMsg:
		a.view = viewLogin
		w, h := a.login.width, a.login.height
		a.login = newLoginModel(a.gateway, a.sessions, a.delegate)
		a.login.width, a.login.height = w, h
		a.login.notice = msg.notice
		return a, a.login.Init()

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a, tea.Quit
		}
		// The login view is always in text entry, so q only quits on the
		// dashboard.
		if a.view == viewDashboard && key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewDashboard:
		a.dash, cmd = a.dash.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	header := center(renderLogo(), a.width) + "\n"

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = a.login.helpView()
	case viewDashboard:
		body = a.dash.View()
		help = a.dash.helpView()
	}

	// Chrome budget: header(2) + help(1) = 3 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-3), "\n")
	return fmt.Sprintf("%s\n%s\n%s", header, body, help)
}
