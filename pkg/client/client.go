package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/pokando/pokando/pkg/domain"
)

// DefaultDelegatedLoginPath is the remote service's entry point for Google sign-in.
const DefaultDelegatedLoginPath = "/oauth2/authorization/google"

// RequestIDHeader carries a per-request UUID for correlating client and server logs.
const RequestIDHeader = "X-Request-Id"

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Login string `json:"login"`
	Email string `json:"email"`
	Nome  string `json:"nome"`
	Senha string `json:"senha"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful POST /auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Client is the Pokando API client. It holds no session state of its own
// beyond the cookie jar; tokens are passed in per request.
type Client struct {
	baseURL       string
	delegatedPath string
	httpClient    *http.Client
	timeout       time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends requests through a copy of hc. A cookie jar is
// installed when hc has none; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.httpClient = &cp
	}
}

// WithTimeout sets the per-request timeout. It applies after all other
// options, including WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithDelegatedLoginPath overrides the delegated sign-in path.
func WithDelegatedLoginPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.delegatedPath = path
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		delegatedPath: DefaultDelegatedLoginPath,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.httpClient.Jar == nil {
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck
		c.httpClient.Jar = jar
	}
	return c
}

// Register creates a new local account. It never creates a session;
// the caller must log in afterwards.
func (c *Client) Register(ctx context.Context, form domain.CredentialForm) error {
	form = form.Normalize()
	req := RegisterRequest{
		Login: form.Email,
		Email: form.Email,
		Nome:  form.DisplayName,
		Senha: form.Password,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", "", req, nil); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return fmt.Errorf("client.Register: %w: %w", ErrRegistrationFailed, err)
		}
		return fmt.Errorf("client.Register: %w", err)
	}
	return nil
}

// Login exchanges credentials for a session token. IssuedAt is left zero;
// the session holder stamps it when the session is stored.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	req := LoginRequest{
		Username: strings.TrimSpace(email),
		Password: password,
	}
	var resp LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		switch {
		case IsRejection(err):
			return nil, fmt.Errorf("client.Login: %w: %w", ErrInvalidCredentials, err)
		case errors.Is(err, ErrNetwork):
			return nil, fmt.Errorf("client.Login: %w", err)
		default:
			return nil, fmt.Errorf("client.Login: %w: %w", ErrAuthService, err)
		}
	}
	if strings.TrimSpace(resp.Token) == "" {
		return nil, fmt.Errorf("client.Login: %w: response has no token", ErrAuthService)
	}
	return &domain.Session{
		Token:     resp.Token,
		Type:      resp.Type,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// DelegatedLoginURL returns the static redirect target for third-party
// sign-in. The remote service runs the whole flow.
func (c *Client) DelegatedLoginURL() string {
	return c.baseURL + c.delegatedPath
}

// Do issues a request with an optional bearer token plus any ambient
// cookies from the jar. Non-2xx responses are returned as *HTTPError.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	return c.doRequest(ctx, method, path, token, body, out)
}

// SetCookie stores a cookie for the API host in the jar.
func (c *Client) SetCookie(cookie *http.Cookie) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return
	}
	c.httpClient.Jar.SetCookies(u, []*http.Cookie{cookie})
}

// ExpireCookie removes the named cookie for the API host from the jar.
func (c *Client) ExpireCookie(name string) {
	c.SetCookie(&http.Cookie{Name: name, Path: "/", MaxAge: -1})
}

// Cookies returns the cookies the jar would send to the API host.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	return c.httpClient.Jar.Cookies(u)
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("%s %s failed after %s (request %s): %v", method, path, time.Since(start).Round(time.Millisecond), reqID, err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	log.Printf("%s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond), reqID)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
	}

	if out != nil {
		// An empty 2xx body leaves out untouched.
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts a message from a Spring-style error body
// ({"message": ...} or {"error": ...}), falling back to the raw body or
// the status text.
func errorMessage(status int, body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
