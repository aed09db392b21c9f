package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pokando/pokando/internal/config"
	"github.com/pokando/pokando/internal/session"
	"github.com/pokando/pokando/internal/tui"
	"github.com/pokando/pokando/pkg/client"
	"github.com/pokando/pokando/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("pokando " + version)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		case "login", "logout", "whoami":
		default:
			return fmt.Errorf("unknown command %q (see pokando help)", args[0])
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	// The TUI owns the terminal, so all logging goes to a file.
	logFile, err := tea.LogToFile(cfg.LogPath(), "pokando")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close() //nolint:errcheck

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	c := client.New(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithDelegatedLoginPath(cfg.DelegatedLoginPath),
	)
	h := session.NewHolder(store, c)

	if len(args) > 0 {
		switch args[0] {
		case "login":
			return runLogin(cfg, c, h)
		case "logout":
			return runLogout(os.Stdout, h)
		case "whoami":
			return runWhoami(context.Background(), os.Stdout, h)
		}
	}
	return runTUI(tui.NewApp(c, h, delegatedLogin(cfg, c)))
}

// openStore picks the session store. POKANDO_TOKEN wins over anything
// persisted and is never written to disk.
func openStore(cfg config.Config) (session.Store, func(), error) {
	noop := func() {}
	if cfg.Token != "" {
		return session.NewMemoryStore(domain.Session{Token: cfg.Token, Type: "Bearer"}), noop, nil
	}
	switch cfg.SessionStore {
	case config.StoreSQLite:
		s, err := session.OpenSQLiteStore(cfg.DBPath())
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			s.Close() //nolint:errcheck
		}
		return s, closeDB, nil
	case config.StoreMemory:
		return session.NewMemoryStore(), noop, nil
	default:
		return session.NewFileStore(cfg.SessionPath()), noop, nil
	}
}

func runTUI(app tui.App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout(w io.Writer, h *session.Holder) error {
	if h.State() == session.Anonymous {
		fmt.Fprintln(w, "Already logged out.")
		return nil
	}
	if err := h.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(w, "Logged out.")
	return nil
}

func runWhoami(ctx context.Context, w io.Writer, h *session.Holder) error {
	sess, ok := h.Session()
	if !ok {
		fmt.Fprintln(w, "Not logged in. Run `pokando` or `pokando login` to sign in.")
		return nil
	}
	p, err := h.Profile(ctx)
	if errors.Is(err, client.ErrSessionExpired) {
		// The holder has already dropped the rejected token.
		fmt.Fprintln(w, "Your session has expired. Log in again.")
		return nil
	}
	if err != nil {
		return err
	}

	name := p.DisplayName
	if name == "" {
		name = "(no name)"
	}
	fmt.Fprintf(w, "%s <%s>\n", name, p.Email)
	if sess.Subject != "" && sess.Subject != p.Email {
		fmt.Fprintf(w, "Token subject %s\n", sess.Subject)
	}
	if !sess.IssuedAt.IsZero() {
		fmt.Fprintf(w, "Signed in %s\n", sess.IssuedAt.Local().Format(time.RFC1123))
	}
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		fmt.Fprintf(w, "Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}
