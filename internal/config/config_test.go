package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{
		"POKANDO_API_URL", "POKANDO_DELEGATED_LOGIN_PATH", "POKANDO_STATE_DIR",
		"POKANDO_SESSION_STORE", "POKANDO_REQUEST_TIMEOUT", "POKANDO_CALLBACK_ADDR",
		"POKANDO_CALLBACK_TIMEOUT", "POKANDO_TOKEN",
	} {
		t.Setenv(k, "") // restored after the test
		os.Unsetenv(k)  //nolint:errcheck
	}

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.DelegatedLoginPath != "/oauth2/authorization/google" {
		t.Errorf("DelegatedLoginPath = %q", cfg.DelegatedLoginPath)
	}
	if cfg.SessionStore != StoreFile {
		t.Errorf("SessionStore = %q, want %q", cfg.SessionStore, StoreFile)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.CallbackAddr != "127.0.0.1:3000" {
		t.Errorf("CallbackAddr = %q", cfg.CallbackAddr)
	}
	if cfg.CallbackTimeout != 2*time.Minute {
		t.Errorf("CallbackTimeout = %v, want 2m", cfg.CallbackTimeout)
	}
	if !strings.HasSuffix(cfg.StateDir, ".pokando") {
		t.Errorf("StateDir = %q, want it to end in .pokando", cfg.StateDir)
	}
}

func TestParseOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POKANDO_API_URL", "https://api.pokando.dev")
	t.Setenv("POKANDO_STATE_DIR", dir)
	t.Setenv("POKANDO_SESSION_STORE", "sqlite")
	t.Setenv("POKANDO_REQUEST_TIMEOUT", "5s")
	t.Setenv("POKANDO_TOKEN", "env-token")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.APIURL != "https://api.pokando.dev" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SessionStore != StoreSQLite {
		t.Errorf("SessionStore = %q", cfg.SessionStore)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if got, want := cfg.SessionPath(), filepath.Join(dir, "session.json"); got != want {
		t.Errorf("SessionPath() = %q, want %q", got, want)
	}
	if got, want := cfg.DBPath(), filepath.Join(dir, "state.db"); got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
	if got, want := cfg.LogPath(), filepath.Join(dir, "debug.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"relative url", "POKANDO_API_URL", "localhost:8080"},
		{"ftp url", "POKANDO_API_URL", "ftp://example.com"},
		{"unknown store", "POKANDO_SESSION_STORE", "redis"},
		{"bad duration", "POKANDO_REQUEST_TIMEOUT", "soon"},
		{"zero timeout", "POKANDO_CALLBACK_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("POKANDO_STATE_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := Parse(); err == nil {
				t.Errorf("Parse() with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		dotenv  string // .env contents; no file when empty
		env     map[string]string
		wantURL string
		wantErr bool
	}{
		{name: "no .env", wantURL: "http://localhost:8080"},
		{name: "from .env", dotenv: "POKANDO_API_URL=https://api.pokando.dev\n", wantURL: "https://api.pokando.dev"},
		{
			name:    "environment wins",
			dotenv:  "POKANDO_API_URL=https://api.pokando.dev\n",
			env:     map[string]string{"POKANDO_API_URL": "https://staging.pokando.dev"},
			wantURL: "https://staging.pokando.dev",
		},
		{name: "malformed .env", dotenv: "POKANDO_API_URL=\"https://api.pokando.dev\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			t.Setenv("POKANDO_STATE_DIR", dir)
			t.Setenv("POKANDO_API_URL", "") // restored after the test
			os.Unsetenv("POKANDO_API_URL")  //nolint:errcheck
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.dotenv != "" {
				if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.dotenv), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.APIURL != tt.wantURL {
				t.Errorf("APIURL = %q, want %q", cfg.APIURL, tt.wantURL)
			}
		})
	}
}
