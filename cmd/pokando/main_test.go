package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pokando/pokando/internal/config"
	"github.com/pokando/pokando/internal/session"
	"github.com/pokando/pokando/pkg/client"
	"github.com/pokando/pokando/pkg/domain"
)

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantSess   *domain.Session
	}{
		{
			name:       "token and lifetime",
			method:     http.MethodGet,
			target:     "/home?token=G1&expiresIn=3600",
			wantStatus: http.StatusOK,
			wantSess:   &domain.Session{Token: "G1", Type: "Bearer", ExpiresIn: 3600},
		},
		{
			name:       "token only",
			method:     http.MethodGet,
			target:     "/?token=G2",
			wantStatus: http.StatusOK,
			wantSess:   &domain.Session{Token: "G2", Type: "Bearer"},
		},
		{"missing token", http.MethodGet, "/home", http.StatusBadRequest, nil},
		{"blank token", http.MethodGet, "/home?token=%20", http.StatusBadRequest, nil},
		{"bad lifetime", http.MethodGet, "/home?token=G1&expiresIn=soon", http.StatusBadRequest, nil},
		{"negative lifetime", http.MethodGet, "/home?token=G1&expiresIn=-5", http.StatusBadRequest, nil},
		{"post", http.MethodPost, "/home?token=G1", http.StatusMethodNotAllowed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := make(chan domain.Session, 1)
			h := callbackHandler(sessions)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			select {
			case got := <-sessions:
				if tt.wantSess == nil {
					t.Fatalf("unexpected session delivered: %+v", got)
				}
				if got != *tt.wantSess {
					t.Errorf("session = %+v, want %+v", got, *tt.wantSess)
				}
			default:
				if tt.wantSess != nil {
					t.Fatal("no session delivered")
				}
			}
		})
	}
}

func TestCallbackHandler_SecondCallbackConflicts(t *testing.T) {
	sessions := make(chan domain.Session, 1)
	h := callbackHandler(sessions)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/?token=A", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/?token=B", nil))

	if first.Code != http.StatusOK || second.Code != http.StatusConflict {
		t.Fatalf("statuses = %d, %d, want 200, 409", first.Code, second.Code)
	}
	if got := (<-sessions).Token; got != "A" {
		t.Errorf("delivered token = %q, want %q", got, "A")
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

// redirectBack simulates the browser finishing sign-in by hitting the
// callback listener.
func redirectBack(t *testing.T, ln net.Listener, query string) {
	t.Helper()
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/home?" + query)
		if err == nil {
			resp.Body.Close() //nolint:errcheck
		}
	}()
}

func TestAwaitCallback(t *testing.T) {
	ln := listen(t)
	const loginURL = "http://localhost:8080/oauth2/authorization/google"

	var opened string
	open := func(url string) error {
		opened = url
		redirectBack(t, ln, "token=G1&expiresIn=600")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out bytes.Buffer
	sess, err := awaitCallback(ctx, ln, loginURL, open, &out)
	if err != nil {
		t.Fatalf("awaitCallback() error: %v", err)
	}
	if opened != loginURL {
		t.Errorf("opened %q, want %q", opened, loginURL)
	}
	if sess.Token != "G1" || sess.ExpiresIn != 600 {
		t.Errorf("session = %+v, want G1/600", sess)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestAwaitCallback_BrowserFailurePrintsURL(t *testing.T) {
	ln := listen(t)
	const loginURL = "http://localhost:8080/oauth2/authorization/google"

	open := func(string) error {
		redirectBack(t, ln, "token=G1")
		return errors.New("no display")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out bytes.Buffer
	if _, err := awaitCallback(ctx, ln, loginURL, open, &out); err != nil {
		t.Fatalf("awaitCallback() error: %v", err)
	}
	if !strings.Contains(out.String(), loginURL) {
		t.Errorf("output = %q, want it to contain the login URL", out.String())
	}
}

func TestAwaitCallback_Timeout(t *testing.T) {
	ln := listen(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := awaitCallback(ctx, ln, "http://localhost:8080/x", func(string) error { return nil }, &bytes.Buffer{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("awaitCallback() error = %v, want DeadlineExceeded", err)
	}

	// The listener is released once the wait ends.
	if _, err := net.Dial("tcp", ln.Addr().String()); err == nil {
		t.Error("callback listener still accepting connections")
	}
}

func TestAwaitCallback_ServerFailure(t *testing.T) {
	ln := listen(t)
	ln.Close() //nolint:errcheck // Serve fails on a closed listener

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	_, err := awaitCallback(ctx, ln, "http://localhost:8080/x", func(string) error { return nil }, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "callback server") {
		t.Fatalf("awaitCallback() error = %v, want the callback server failure", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("awaitCallback() waited for the deadline: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("awaitCallback() took %s after the server failed", elapsed)
	}
}

func newProfileServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != session.ProfilePath {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(domain.UserProfile{DisplayName: "Ana Souza", Email: "ana@pokando.dev"}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunLogout(t *testing.T) {
	c := client.New("http://localhost:8080")

	t.Run("anonymous", func(t *testing.T) {
		var out bytes.Buffer
		if err := runLogout(&out, session.NewHolder(session.NewMemoryStore(), c)); err != nil {
			t.Fatalf("runLogout() error: %v", err)
		}
		if got := strings.TrimSpace(out.String()); got != "Already logged out." {
			t.Errorf("output = %q, want %q", got, "Already logged out.")
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		h := session.NewHolder(session.NewMemoryStore(domain.Session{Token: "T1"}), c)
		var out bytes.Buffer
		if err := runLogout(&out, h); err != nil {
			t.Fatalf("runLogout() error: %v", err)
		}
		if got := strings.TrimSpace(out.String()); got != "Logged out." {
			t.Errorf("output = %q, want %q", got, "Logged out.")
		}
		if h.State() != session.Anonymous {
			t.Error("session still stored after logout")
		}
	})
}

func TestRunWhoami(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		seed      []domain.Session
		want      []string
		wantState session.State
	}{
		{
			name:      "signed in",
			status:    http.StatusOK,
			seed:      []domain.Session{{Token: "T1", ExpiresIn: 3600, IssuedAt: time.Now()}},
			want:      []string{"Ana Souza <ana@pokando.dev>", "Session expires"},
			wantState: session.Authenticated,
		},
		{
			name:      "expired",
			status:    http.StatusUnauthorized,
			seed:      []domain.Session{{Token: "T1"}},
			want:      []string{"Your session has expired."},
			wantState: session.Anonymous,
		},
		{
			name:      "anonymous",
			status:    http.StatusOK,
			want:      []string{"Not logged in."},
			wantState: session.Anonymous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProfileServer(t, tt.status)
			h := session.NewHolder(session.NewMemoryStore(tt.seed...), client.New(srv.URL))

			var out bytes.Buffer
			if err := runWhoami(context.Background(), &out, h); err != nil {
				t.Fatalf("runWhoami() error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output = %q, want it to contain %q", out.String(), want)
				}
			}
			if h.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", h.State(), tt.wantState)
			}
		})
	}
}

func TestRunWhoami_TokenClaims(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "ana",
		IssuedAt: jwt.NewNumericDate(issued),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	srv := newProfileServer(t, http.StatusOK)
	h := session.NewHolder(session.NewMemoryStore(), client.New(srv.URL))
	if err := h.Store(domain.Session{Token: token, ExpiresIn: 3 * 3600}); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	var out bytes.Buffer
	if err := runWhoami(context.Background(), &out, h); err != nil {
		t.Fatalf("runWhoami() error: %v", err)
	}
	for _, want := range []string{
		"Token subject ana",
		"Signed in " + issued.Local().Format(time.RFC1123),
		"Session expires " + issued.Add(3*time.Hour).Local().Format(time.RFC1123),
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output = %q, want it to contain %q", out.String(), want)
		}
	}
}

func TestRunWhoami_ServerError(t *testing.T) {
	srv := newProfileServer(t, http.StatusInternalServerError)
	h := session.NewHolder(session.NewMemoryStore(domain.Session{Token: "T1"}), client.New(srv.URL))

	err := runWhoami(context.Background(), &bytes.Buffer{}, h)
	if !errors.Is(err, client.ErrAuthService) {
		t.Fatalf("runWhoami() error = %v, want ErrAuthService", err)
	}
	if h.State() != session.Authenticated {
		t.Error("server error must not clear the session")
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	base := config.Config{StateDir: dir}

	tests := []struct {
		name      string
		cfg       func() config.Config
		wantType  string
		wantToken string
	}{
		{"token override", func() config.Config {
			c := base
			c.SessionStore = config.StoreSQLite
			c.Token = "ENV"
			return c
		}, "*session.MemoryStore", "ENV"},
		{"file", func() config.Config {
			c := base
			c.SessionStore = config.StoreFile
			return c
		}, "*session.FileStore", ""},
		{"sqlite", func() config.Config {
			c := base
			c.SessionStore = config.StoreSQLite
			return c
		}, "*session.SQLiteStore", ""},
		{"memory", func() config.Config {
			c := base
			c.SessionStore = config.StoreMemory
			return c
		}, "*session.MemoryStore", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeStore, err := openStore(tt.cfg())
			if err != nil {
				t.Fatalf("openStore() error: %v", err)
			}
			defer closeStore()

			if got := fmt.Sprintf("%T", store); got != tt.wantType {
				t.Errorf("store type = %s, want %s", got, tt.wantType)
			}
			sess, ok, err := store.Get()
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if tt.wantToken == "" && ok {
				t.Errorf("Get() = %+v, want empty store", sess)
			}
			if tt.wantToken != "" && sess.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", sess.Token, tt.wantToken)
			}
		})
	}
}
