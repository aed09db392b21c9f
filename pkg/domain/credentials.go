package domain

import (
	"errors"
	"net/mail"
	"strings"
)

// Form validation errors.
var (
	ErrNameRequired     = errors.New("name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is invalid")
	ErrPasswordRequired = errors.New("password is required")
)

// CredentialForm is the transient login/registration input. It is never persisted.
type CredentialForm struct {
	DisplayName string // registration only
	Email       string
	Password    string
}

// Normalize trims surrounding whitespace from the name and email.
// The password is left untouched.
func (f CredentialForm) Normalize() CredentialForm {
	f.DisplayName = strings.TrimSpace(f.DisplayName)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// Validate checks the fields required for login, or for registration
// when registering is true.
func (f CredentialForm) Validate(registering bool) error {
	f = f.Normalize()
	if registering && f.DisplayName == "" {
		return ErrNameRequired
	}
	if f.Email == "" {
		return ErrEmailRequired
	}
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		return ErrEmailInvalid
	}
	if f.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}
