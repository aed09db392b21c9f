package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pokando/pokando/pkg/client"
	"github.com/pokando/pokando/pkg/domain"
)

// dashboardModel shows the signed-in user's profile. The profile is fetched
// on entry and on every refresh; nothing is cached.
type dashboardModel struct {
	sessions Sessions
	keys     keyMap
	profile  result[*domain.UserProfile]
	spinner  spinner.Model
	width    int
	height   int
}

func newDashboardModel(sessions Sessions) dashboardModel {
	return dashboardModel{
		sessions: sessions,
		keys:     defaultKeyMap(),
		profile:  pendingResult[*domain.UserProfile](),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m dashboardModel) load() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		p, err := sessions.Profile(context.Background())
		return profileLoadedMsg{profile: p, err: err}
	}
}

func (m dashboardModel) logout() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		if err := sessions.Clear(); err != nil {
			return logoutFailedMsg{err: err}
		}
		return sessionEndedMsg{notice: "Logged out."}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case profileLoadedMsg:
		if errors.Is(msg.err, client.ErrSessionExpired) {
			// The holder has already dropped the token.
			notice := userMessage(msg.err)
			return m, func() tea.Msg { return sessionEndedMsg{notice: notice} }
		}
		if msg.err != nil {
			m.profile = errResult[*domain.UserProfile](msg.err)
			return m, nil
		}
		m.profile = okResult(msg.profile)

	case logoutFailedMsg:
		m.profile = errResult[*domain.UserProfile](msg.err)

	case spinner.TickMsg:
		if !m.profile.pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			if m.profile.pending() {
				return m, nil
			}
			m.profile = pendingResult[*domain.UserProfile]()
			return m, tea.Batch(m.spinner.Tick, m.load())
		case key.Matches(msg, m.keys.Logout):
			return m, m.logout()
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.profile.pending() {
		return " " + m.spinner.View() + " " + dimStyle.Render("loading profile...")
	}
	if m.profile.failed() {
		return " " + errorStyle.Render(userMessage(m.profile.err)) + "\n\n " +
			dimStyle.Render("press r to try again")
	}
	p, ok := m.profile.ok()
	if !ok || p == nil {
		return ""
	}

	var sb strings.Builder
	greeting := "Hello!"
	if first := p.FirstName(); first != "" {
		greeting = "Hello, " + first + "!"
	}
	sb.WriteString(" " + selectedStyle.Render(greeting) + "\n\n")

	avatar := avatarStyle.Render(p.Initial())
	if p.AvatarURL != "" {
		avatar += " " + metaStyle.Render(p.AvatarURL)
	}
	name := p.DisplayName
	if name == "" {
		name = "(no name)"
	}
	card := lipgloss.JoinVertical(lipgloss.Left,
		avatar,
		"",
		selectedStyle.Render(name),
		normalStyle.Render(p.Email),
	)
	sb.WriteString(cardStyle.Render(card) + "\n\n")

	sb.WriteString(" " + labelStyle.Render("Upcoming events") + "\n")
	sb.WriteString(" " + dimStyle.Render("No events yet.") + "\n")
	return sb.String()
}

func (m dashboardModel) helpView() string {
	return helpBar(
		entry(m.keys.Refresh),
		entry(m.keys.Logout),
		entry(m.keys.Quit),
	)
}
