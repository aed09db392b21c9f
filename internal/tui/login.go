package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pokando/pokando/internal/browser"
	"github.com/pokando/pokando/pkg/domain"
)

const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

const registeredNotice = "Account created. Log in."

// openBrowser is swapped out in tests.
var openBrowser = browser.Open

// loginModel is the combined login and registration form.
type loginModel struct {
	gateway  Gateway
	sessions Sessions
	delegate DelegateFunc
	keys     keyMap

	registering bool
	inputs      [fieldCount]textinput.Model
	focus       int // index into visibleFields()
	spinner     spinner.Model
	request     result[string]
	delegating  bool
	notice      string
	width       int
	height      int
}

func newLoginModel(gw Gateway, sessions Sessions, delegate DelegateFunc) loginModel {
	m := loginModel{
		gateway:  gw,
		sessions: sessions,
		delegate: delegate,
		keys:     defaultKeyMap(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
	}
	placeholders := [fieldCount]string{"Your name", "you@example.com", "password"}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.PlaceholderStyle = inputPlaceholderStyle
		in.PromptStyle = inputPromptStyle
		in.CharLimit = 254
		in.Width = 36
		m.inputs[i] = in
	}
	m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldPassword].EchoCharacter = '•'
	m.setFocus(0)
	return m
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

// visibleFields lists the inputs shown in the current mode, top to bottom.
func (m loginModel) visibleFields() []int {
	if m.registering {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (m *loginModel) setFocus(i int) {
	fields := m.visibleFields()
	m.focus = (i + len(fields)) % len(fields)
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.inputs[fields[m.focus]].Focus()
}

func (m loginModel) focused() int {
	return m.visibleFields()[m.focus]
}

func (m loginModel) form() domain.CredentialForm {
	f := domain.CredentialForm{
		Email:    m.inputs[fieldEmail].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}
	if m.registering {
		f.DisplayName = m.inputs[fieldName].Value()
	}
	return f.Normalize()
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case registeredMsg:
		if msg.err != nil {
			m.request = errResult[string](msg.err)
			return m, nil
		}
		// Registration never signs the user in: back to login with the
		// email kept.
		m.registering = false
		m.inputs[fieldName].Reset()
		m.inputs[fieldPassword].Reset()
		m.inputs[fieldEmail].SetValue(msg.email)
		m.setFocus(1)
		m.request = okResult(registeredNotice)
		return m, nil

	case loginResultMsg:
		m.delegating = false
		if msg.err != nil {
			m.request = errResult[string](msg.err)
			return m, nil
		}
		m.inputs[fieldPassword].Reset()
		m.request = result[string]{}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.notice = "Could not copy the sign-in link: " + msg.err.Error()
		} else {
			m.notice = "Sign-in link copied to clipboard."
		}
		return m, nil

	case browserOpenedMsg:
		if msg.err != nil {
			m.notice = "Open this link to sign in with Google: " + msg.url
		} else {
			m.notice = "Continue signing in with Google in your browser."
		}
		return m, nil

	case spinner.TickMsg:
		if !m.request.pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Toggle):
			if m.request.pending() {
				return m, nil
			}
			m.registering = !m.registering
			m.request = result[string]{}
			m.notice = ""
			m.setFocus(0)
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.setFocus(m.focus + 1)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.setFocus(m.focus - 1)
			return m, nil
		case key.Matches(msg, m.keys.Delegate):
			return m.startDelegated()
		case key.Matches(msg, m.keys.CopyURL):
			url := m.gateway.DelegatedLoginURL()
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(url)}
			}
		}
	}

	var cmd tea.Cmd
	i := m.focused()
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	return m, cmd
}

// submit validates the form and starts registration or login. A submit
// while a request is in flight is dropped.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.request.pending() {
		return m, nil
	}
	form := m.form()
	if err := form.Validate(m.registering); err != nil {
		m.request = errResult[string](err)
		return m, nil
	}
	m.request = pendingResult[string]()
	m.notice = ""

	gw, sessions := m.gateway, m.sessions
	if m.registering {
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			err := gw.Register(context.Background(), form)
			return registeredMsg{email: form.Email, err: err}
		})
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		sess, err := gw.Login(context.Background(), form.Email, form.Password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{err: sessions.Store(*sess)}
	})
}

// startDelegated hands sign-in to the remote service. Without a delegate
// the browser is simply pointed at the entry URL.
func (m loginModel) startDelegated() (loginModel, tea.Cmd) {
	if m.request.pending() {
		return m, nil
	}
	url := m.gateway.DelegatedLoginURL()
	if m.delegate == nil {
		return m, func() tea.Msg {
			return browserOpenedMsg{url: url, err: openBrowser(url)}
		}
	}
	m.request = pendingResult[string]()
	m.delegating = true
	m.notice = "Finish signing in with Google in your browser."
	delegate, sessions := m.delegate, m.sessions
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		sess, err := delegate(context.Background())
		if err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{err: sessions.Store(*sess)}
	})
}

func (m loginModel) title() string {
	if m.registering {
		return "Create account"
	}
	return "Log in"
}

func (m loginModel) View() string {
	var sb strings.Builder

	sb.WriteString(" " + selectedStyle.Render(m.title()) + "\n\n")

	labels := [fieldCount]string{"Name", "Email", "Password"}
	for _, i := range m.visibleFields() {
		label := labelStyle
		if i == m.focused() {
			label = focusedLabelStyle
		}
		sb.WriteString(" " + label.Render(labels[i]) + "\n")
		sb.WriteString(" " + m.inputs[i].View() + "\n\n")
	}

	switch {
	case m.request.pending():
		sb.WriteString(" " + m.spinner.View() + " " + dimStyle.Render(m.pendingLabel()) + "\n")
	case m.request.failed():
		sb.WriteString(" " + errorStyle.Render(userMessage(m.request.err)) + "\n")
	default:
		if msg, ok := m.request.ok(); ok {
			sb.WriteString(" " + successStyle.Render(msg) + "\n")
		}
	}
	if m.notice != "" {
		sb.WriteString(" " + noticeStyle.Render(m.notice) + "\n")
	}

	sb.WriteString("\n " + metaStyle.Render("or sign in with Google: "+m.gateway.DelegatedLoginURL()) + "\n")
	return sb.String()
}

func (m loginModel) pendingLabel() string {
	switch {
	case m.delegating:
		return "Signing in with Google..."
	case m.registering:
		return "Creating account..."
	default:
		return "Logging in..."
	}
}

func (m loginModel) helpView() string {
	return helpBar(
		entry(m.keys.Submit),
		entry(m.keys.Next),
		entry(m.keys.Toggle),
		entry(m.keys.Delegate),
		entry(m.keys.CopyURL),
		entry(m.keys.ForceQuit),
	)
}
