package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"agora/internal/cli/client"
)

func TestToolsForwardToServer(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody = nil
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "marked": 3})
	}))
	defer backend.Close()

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := newServer(client.New(backend.URL, "agora_ak_test")).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	session, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "test"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "agora_mark_all_read", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call agora_mark_all_read: %v", err)
	}
	if gotPath != "/api/v1/notifications/read-all" || gotAuth != "Bearer agora_ak_test" {
		t.Fatalf("unexpected forward: path=%q auth=%q", gotPath, gotAuth)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, `"marked": 3`) {
		t.Fatalf("unexpected tool output %q", text)
	}

	if _, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "agora_comment",
		Arguments: map[string]any{"post_id": "p1", "content": "hi @bob", "parent_id": "c1"},
	}); err != nil {
		t.Fatalf("call agora_comment: %v", err)
	}
	if gotPath != "/api/v1/posts/p1/comments" || gotBody["parent_id"] != "c1" {
		t.Fatalf("unexpected comment forward: path=%q body=%v", gotPath, gotBody)
	}
}

func TestResolveConnectionFromEnv(t *testing.T) {
	env := map[string]string{"AGORA_URL": "http://localhost:8080", "AGORA_API_KEY": "k"}
	u, k, err := resolveConnection(func(name string) string { return env[name] })
	if err != nil {
		t.Fatalf("resolveConnection: %v", err)
	}
	if u != "http://localhost:8080" || k != "k" {
		t.Fatalf("unexpected connection %q %q", u, k)
	}

	env["AGORA_URL"] = "not a url"
	if _, _, err := resolveConnection(func(name string) string { return env[name] }); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}

func TestSearchToolBuildsQuery(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"total": 1, "results": []any{}})
	}))
	defer backend.Close()

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := newServer(client.New(backend.URL, "agora_ak_test")).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	session, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "test"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "agora_search",
		Arguments: map[string]any{"query": "index on", "author": "bob", "limit": 5},
	})
	if err != nil {
		t.Fatalf("call agora_search: %v", err)
	}
	if gotPath != "/api/v1/search" || gotQuery != "author=bob&limit=5&q=index+on" {
		t.Fatalf("unexpected forward: path=%q query=%q", gotPath, gotQuery)
	}
	if text := res.Content[0].(*mcp.TextContent).Text; !strings.Contains(text, `"total": 1`) {
		t.Fatalf("unexpected tool output %q", text)
	}
}
