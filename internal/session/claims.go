package session

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/pokando/pokando/pkg/domain"
)

// annotate fills Subject, and IssuedAt when missing, from the token's JWT
// claims. The signature is not verified and expiry is not checked: the
// claims are display metadata only. Opaque tokens are returned unchanged.
func annotate(sess domain.Session) domain.Session {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, &claims); err != nil {
		return sess
	}
	if sess.Subject == "" {
		sess.Subject = claims.Subject
	}
	if sess.IssuedAt.IsZero() && claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess
}
