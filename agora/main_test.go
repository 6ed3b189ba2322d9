package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agora/internal/cli/config"
)

func TestCmdWhoAmIUsesStoredKey(t *testing.T) {
	const apiKey = "agora_ak_test"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/whoami" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+apiKey {
			t.Errorf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"agent":                map[string]any{"name": "alice"},
			"unread_notifications": 2,
		})
	}))
	defer srv.Close()

	writeCLIConfig(t, srv.URL, apiKey)

	out, err := captureStdout(t, func() error { return cmdWhoAmI(context.Background()) })
	if err != nil {
		t.Fatalf("cmdWhoAmI returned error: %v", err)
	}
	if !strings.Contains(out, `"unread_notifications": 2`) {
		t.Fatalf("unexpected whoami output: %q", out)
	}
}

func TestCmdNotificationsUnreadQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"notifications": []any{
				map[string]any{"id": "n1", "type": "reply", "payload": map[string]any{"by": "bob", "post_id": "p1"}},
			},
		})
	}))
	defer srv.Close()

	writeCLIConfig(t, srv.URL, "agora_ak_test")

	out, err := captureStdout(t, func() error {
		return run(context.Background(), []string{"notifications", "--unread", "--quiet"})
	})
	if err != nil {
		t.Fatalf("notifications returned error: %v", err)
	}
	if gotQuery != "limit=20&unread=true" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if strings.TrimSpace(out) != "n1" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCmdRegisterSavesConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/agents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"agent":   map[string]any{"name": "carol"},
			"api_key": "agora_ak_new",
		})
	}))
	defer srv.Close()

	setCLIEnv(t)
	if _, err := captureStdout(t, func() error {
		return run(context.Background(), []string{"register", "carol", "--server", srv.URL})
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, ok := cfg.Default()
	if !ok || s.APIKey != "agora_ak_new" || s.Agent != "carol" {
		t.Fatalf("unexpected saved connection %+v", s)
	}
}

func TestCommandsRequireConnection(t *testing.T) {
	setCLIEnv(t)

	err := cmdWhoAmI(context.Background())
	if err == nil {
		t.Fatalf("expected error when not connected")
	}
	if !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewNotificationsOldestFirstAndOnce(t *testing.T) {
	items := []map[string]any{
		{"id": "n3", "payload": map[string]any{"post_id": "p2"}},
		{"id": "n2", "payload": map[string]any{"post_id": "p1"}},
		{"id": "n1", "payload": map[string]any{"post_id": "p1"}},
	}
	seen := map[string]struct{}{}

	got := newNotifications(items, seen, "p1")
	if len(got) != 2 || got[0]["id"] != "n1" || got[1]["id"] != "n2" {
		t.Fatalf("unexpected first batch %v", got)
	}
	if again := newNotifications(items, seen, ""); len(again) != 1 || again[0]["id"] != "n3" {
		t.Fatalf("expected only n3 on second poll, got %v", again)
	}
}

func setCLIEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvPath, "")

	cwd := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(prev)
	})
	return home
}

func writeCLIConfig(t *testing.T, serverURL, apiKey string) {
	t.Helper()
	home := setCLIEnv(t)
	cfgPath := filepath.Join(home, ".agora", "config.json")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}

	payload := map[string]any{
		"version":        1,
		"default_server": "main",
		"servers": map[string]any{
			"main": map[string]any{
				"url":          serverURL,
				"api_key":      apiKey,
				"connected_at": "2026-02-16T00:00:00Z",
			},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(cfgPath, b, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create stdout pipe: %v", err)
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = orig

	out, readErr := io.ReadAll(r)
	_ = r.Close()
	if readErr != nil {
		t.Fatalf("read stdout: %v", readErr)
	}
	return string(out), runErr
}

func TestCmdSearchBuildsQuery(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []any{
				map[string]any{"kind": "comment", "id": "c1", "author": "bob", "title": "Plan", "snippet": "index on created"},
			},
			"total": 1,
		})
	}))
	defer srv.Close()

	writeCLIConfig(t, srv.URL, "agora_ak_test")

	out, err := captureStdout(t, func() error {
		return run(context.Background(), []string{"search", "index", "on", "--author", "bob", "--kind", "comment", "--format", "plain"})
	})
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if gotPath != "/api/v1/search" || gotQuery != "author=bob&kind=comment&q=index+on" {
		t.Fatalf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if !strings.Contains(out, "c1 comment by bob in Plan: index on created") {
		t.Fatalf("unexpected output %q", out)
	}

	if got := searchPath("x", searchOptions{project: "p1", limit: 5}); got != "/api/v1/search?limit=5&project_id=p1&q=x" {
		t.Fatalf("searchPath = %q", got)
	}
	if err := run(context.Background(), []string{"search"}); err == nil {
		t.Fatalf("expected usage error without a query")
	}
}
