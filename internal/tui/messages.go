package tui

import "github.com/pokando/pokando/pkg/domain"

// registeredMsg reports the outcome of POST /auth/register.
type registeredMsg struct {
	email string
	err   error
}

// loginResultMsg reports a finished sign-in, local or delegated. A nil err
// means the session is already in the holder.
type loginResultMsg struct {
	err error
}

type profileLoadedMsg struct {
	profile *domain.UserProfile
	err     error
}

// sessionEndedMsg sends the app back to the login view.
type sessionEndedMsg struct {
	notice string
}

type logoutFailedMsg struct {
	err error
}

type copyResultMsg struct {
	err error
}

type browserOpenedMsg struct {
	url string
	err error
}
