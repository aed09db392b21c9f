package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pokando/pokando/internal/browser"
	"github.com/pokando/pokando/internal/config"
	"github.com/pokando/pokando/internal/session"
	"github.com/pokando/pokando/internal/tui"
	"github.com/pokando/pokando/pkg/client"
	"github.com/pokando/pokando/pkg/domain"
)

// runLogin performs a delegated sign-in from the command line, verifies the
// new session and then opens the TUI.
func runLogin(cfg config.Config, c *client.Client, h *session.Holder) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CallbackTimeout)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.CallbackAddr)
	if err != nil {
		return fmt.Errorf("start callback listener: %w", err)
	}

	fmt.Println("Opening browser to sign in with Google...")
	sess, err := awaitCallback(ctx, ln, c.DelegatedLoginURL(), browser.Open, os.Stdout)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("login timed out: no callback received within %s", cfg.CallbackTimeout)
	}
	if err != nil {
		return err
	}
	if err := h.Store(*sess); err != nil {
		return err
	}

	// Verify by calling /usuarios/me.
	p, err := h.Profile(context.Background())
	if errors.Is(err, client.ErrSessionExpired) {
		return fmt.Errorf("the server rejected the new session: %w", err)
	}
	if err != nil {
		fmt.Printf("Session saved but verification failed: %v\n", err)
		return nil
	}
	fmt.Printf("Signed in as %s <%s>\n\n", p.DisplayName, p.Email)

	return runTUI(tui.NewApp(c, h, delegatedLogin(cfg, c)))
}

// delegatedLogin returns the sign-in hand-off used by ctrl+g in the TUI.
// Output goes to the log because the TUI owns the terminal.
func delegatedLogin(cfg config.Config, c *client.Client) tui.DelegateFunc {
	return func(ctx context.Context) (*domain.Session, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.CallbackTimeout)
		defer cancel()

		ln, err := net.Listen("tcp", cfg.CallbackAddr)
		if err != nil {
			return nil, fmt.Errorf("start callback listener: %w", err)
		}
		return awaitCallback(ctx, ln, c.DelegatedLoginURL(), browser.Open, io.Discard)
	}
}

// awaitCallback serves the sign-in callback on ln, points the browser at
// loginURL and waits until the remote service redirects back with a token
// or ctx ends. ln is closed on return.
func awaitCallback(ctx context.Context, ln net.Listener, loginURL string, open func(string) error, out io.Writer) (*domain.Session, error) {
	sessions := make(chan domain.Session, 1)
	srv := &http.Server{
		Handler:           callbackHandler(sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sess domain.Session
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx) //nolint:errcheck
		}()
		select {
		case sess = <-sessions:
			return nil
		case <-gctx.Done():
			return fmt.Errorf("waiting for sign-in callback: %w", gctx.Err())
		}
	})

	log.Printf("login: waiting for callback on %s", ln.Addr())
	if err := open(loginURL); err != nil {
		log.Printf("login: open browser: %v", err)
		fmt.Fprintf(out, "Could not open browser. Visit this URL manually:\n  %s\n", loginURL)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &sess, nil
}

// callbackHandler accepts the redirect that ends a delegated sign-in:
// ?token=<jwt>[&expiresIn=<seconds>][&type=Bearer]. Only the first valid
// callback is delivered. IssuedAt is left for the session holder.
func callbackHandler(sessions chan<- domain.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		token := strings.TrimSpace(q.Get("token"))
		if token == "" {
			http.Error(w, "missing token", http.StatusBadRequest)
			return
		}
		sess := domain.Session{Token: token, Type: "Bearer"}
		if typ := q.Get("type"); typ != "" {
			sess.Type = typ
		}
		if raw := q.Get("expiresIn"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "invalid expiresIn", http.StatusBadRequest)
				return
			}
			sess.ExpiresIn = n
		}

		select {
		case sessions <- sess:
		default:
			http.Error(w, "sign-in already completed", http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, callbackHTML) //nolint:errcheck
	}
}

const callbackHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Pokando</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{
  background:#0a0a10;color:#e4e4ec;
  font-family:'SF Mono','Consolas',monospace;
  height:100vh;display:flex;align-items:center;justify-content:center;
}
.card{text-align:center}
.logo{font-size:32px;font-weight:700;letter-spacing:12px;color:#ef4444;margin-bottom:24px}
.msg{font-size:14px;color:#8890a0}
</style>
</head>
<body>
<div class="card">
<div class="logo">POKANDO</div>
<div class="msg">You are signed in. You can close this tab and return to the terminal.</div>
</div>
</body>
</html>
`
