package tui

import (
	"errors"
	"net/http"

	"github.com/pokando/pokando/pkg/client"
)

// userMessage turns an error from the client, the session holder or form
// validation into the line shown to the user.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, client.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, client.ErrRegistrationFailed):
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != http.StatusText(httpErr.StatusCode) {
			return "Registration failed: " + sentence(httpErr.Message)
		}
		return "Registration failed. Check your details and try again."
	case errors.Is(err, client.ErrSessionExpired):
		return "Your session has expired. Log in again."
	case errors.Is(err, client.ErrNetwork):
		return "Cannot reach the Pokando server. Check your connection."
	case errors.Is(err, client.ErrAuthService):
		return "The Pokando server could not complete the request. Try again."
	}
	// Form validation errors read well as-is.
	return sentence(err.Error())
}
