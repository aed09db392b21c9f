package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true).
		Render("P O K A N D O")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"pokando", "Log in, register or view your profile (interactive TUI)"},
		{"pokando login", "Sign in with Google through your browser"},
		{"pokando logout", "Clear your session"},
		{"pokando whoami", "Show the signed-in user"},
		{"pokando --version", "Show version"},
		{"pokando help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  Commands:\n", title)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	envs := []struct{ name, desc string }{
		{"POKANDO_API_URL", "API base URL (default http://localhost:8080)"},
		{"POKANDO_SESSION_STORE", "file, sqlite or memory (default file)"},
		{"POKANDO_STATE_DIR", "session, database and log directory (default ~/.pokando)"},
		{"POKANDO_TOKEN", "use this token instead of the stored session"},
	}
	fmt.Fprintf(w, "\n  Environment:\n")
	for _, e := range envs {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", e.name)), descStyle.Render(e.desc))
	}
	fmt.Fprintln(w)
}
