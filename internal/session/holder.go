package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pokando/pokando/pkg/client"
	"github.com/pokando/pokando/pkg/domain"
)

// ProfilePath is the protected endpoint returning the current user.
const ProfilePath = "/usuarios/me"

// State is the client's view of whether a user is logged in.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Holder owns the persisted session and attaches it to protected requests.
// A session leaves the holder on Clear or as soon as the server rejects it.
type Holder struct {
	mu     sync.Mutex
	store  Store
	client *client.Client
	now    func() time.Time
}

// NewHolder wraps store and c. A session already in the store has its
// cookie mirror restored with the remaining lifetime.
func NewHolder(store Store, c *client.Client) *Holder {
	h := &Holder{store: store, client: c, now: time.Now}
	h.restore()
	return h
}

func (h *Holder) restore() {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok, err := h.store.Get()
	if err != nil {
		log.Printf("session: restore: %v", err)
		return
	}
	if !ok {
		return
	}
	if sess.ExpiresIn > 0 {
		remaining := sess.Remaining(h.now())
		if remaining <= 0 {
			// The cookie would have lapsed; the bearer token still goes
			// out until the server says otherwise.
			return
		}
		h.mirrorCookie(sess.Token, int(remaining.Seconds()))
		return
	}
	h.mirrorCookie(sess.Token, 0)
}

// Store persists sess and mirrors its token into the cookie jar. A zero
// IssuedAt is taken from the token's iat claim, else the local clock.
func (h *Holder) Store(sess domain.Session) error {
	if !sess.Valid() {
		return errors.New("session.Store: empty token")
	}
	sess = annotate(sess)
	if sess.IssuedAt.IsZero() {
		sess.IssuedAt = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Set(sess); err != nil {
		return fmt.Errorf("session.Store: %w", err)
	}
	h.mirrorCookie(sess.Token, int(sess.ExpiresIn))
	log.Printf("session: stored (expires in %ds)", sess.ExpiresIn)
	return nil
}

// Session returns the persisted session, if any.
func (h *Holder) Session() (domain.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// CurrentToken returns the persisted token, if any.
func (h *Holder) CurrentToken() (string, bool) {
	sess, ok := h.Session()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// State reports Authenticated when a token is persisted.
func (h *Holder) State() State {
	if _, ok := h.CurrentToken(); ok {
		return Authenticated
	}
	return Anonymous
}

// Clear removes the persisted session and expires the cookie mirror.
// Clearing an anonymous holder is a no-op.
func (h *Holder) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clear()
}

// AuthorizedRequest issues a request carrying the stored token as a bearer
// credential plus any ambient cookies. A 401/403 clears the stored session
// before the error, matching client.ErrSessionExpired, is returned.
// Requests are sent even without a token so cookie-only sessions work.
func (h *Holder) AuthorizedRequest(ctx context.Context, method, path string, body, out any) error {
	token, _ := h.CurrentToken()

	err := h.client.Do(ctx, method, path, token, body, out)
	switch {
	case err == nil:
		return nil
	case client.IsRejection(err):
		if clearErr := h.clearIfCurrent(token); clearErr != nil {
			log.Printf("session: clear after rejection: %v", clearErr)
		}
		return fmt.Errorf("session.AuthorizedRequest: %w: %w", client.ErrSessionExpired, err)
	case errors.Is(err, client.ErrNetwork):
		return fmt.Errorf("session.AuthorizedRequest: %w", err)
	default:
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) {
			return fmt.Errorf("session.AuthorizedRequest: %w: %w", client.ErrAuthService, err)
		}
		return fmt.Errorf("session.AuthorizedRequest: %w", err)
	}
}

// Profile fetches the current user. It is never cached.
func (h *Holder) Profile(ctx context.Context) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := h.AuthorizedRequest(ctx, http.MethodGet, ProfilePath, nil, &p); err != nil {
		return nil, fmt.Errorf("session.Profile: %w", err)
	}
	return &p, nil
}

// clearIfCurrent clears the session only if it still holds token, so a
// rejection of an old token cannot discard a newer login.
func (h *Holder) clearIfCurrent(token string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.load()
	if ok && sess.Token != token {
		return nil
	}
	return h.clear()
}

func (h *Holder) load() (domain.Session, bool) {
	sess, ok, err := h.store.Get()
	if err != nil {
		log.Printf("session: read: %v", err)
		return domain.Session{}, false
	}
	if !ok || !sess.Valid() {
		return domain.Session{}, false
	}
	return sess, true
}

func (h *Holder) clear() error {
	if err := h.store.Clear(); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	h.client.ExpireCookie(TokenKey)
	log.Printf("session: cleared")
	return nil
}

// mirrorCookie writes the token cookie the web backend may read instead of
// the Authorization header. maxAge <= 0 yields a cookie without Max-Age.
func (h *Holder) mirrorCookie(token string, maxAge int) {
	if maxAge < 0 {
		maxAge = 0
	}
	h.client.SetCookie(&http.Cookie{
		Name:   TokenKey,
		Value:  token,
		Path:   "/",
		MaxAge: maxAge,
	})
}
