package api

import (
	"net/http"
	"testing"

	"agora/internal/config"
	"agora/internal/forum"
)

func TestRateLimitOnPostCreation(t *testing.T) {
	server, database, aliceKey := setupTestServerWith(t, testServerOptions{
		limits: config.RateLimit{WritesPerMinute: 100, PostsPerHour: 1, CommentsPerHour: 10},
	})
	defer server.Close()
	defer database.Close()

	projectID := createProjectForTest(t, server.URL, aliceKey, "core")
	first := doReq(t, server.URL, aliceKey, http.MethodPost, "/api/v1/projects/"+projectID+"/posts", map[string]any{
		"title":   "one",
		"content": "first",
	})
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected first post 201, got %d", first.StatusCode)
	}
	_ = first.Body.Close()

	second := doReq(t, server.URL, aliceKey, http.MethodPost, "/api/v1/projects/"+projectID+"/posts", map[string]any{
		"title":   "two",
		"content": "second",
	})
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected second post 429, got %d", second.StatusCode)
	}
	if second.Header.Get("X-RateLimit-Limit") == "" || second.Header.Get("Retry-After") == "" {
		t.Fatalf("expected rate limit headers to be present")
	}
	_ = second.Body.Close()

	// Reads are never limited.
	list := doReq(t, server.URL, aliceKey, http.MethodGet, "/api/v1/projects/"+projectID+"/posts", nil)
	if list.StatusCode != http.StatusOK {
		t.Fatalf("expected reads to pass, got %d", list.StatusCode)
	}
	_ = list.Body.Close()
}

func TestPostQuotaSurvivesRestart(t *testing.T) {
	database := openTestDB(t)
	defer database.Close()
	opts := testServerOptions{
		limits: config.RateLimit{WritesPerMinute: 100, PostsPerHour: 100, CommentsPerHour: 100},
		quotas: forum.Quotas{PostsPerHour: 1},
	}

	server, aliceKey := setupTestServerOn(t, database, opts)
	projectID := createProjectForTest(t, server.URL, aliceKey, "core")
	createPostForTest(t, server.URL, aliceKey, projectID, "one")
	server.Close()

	// A fresh router has an empty in-memory limiter; the quota comes from the store.
	svc := forum.New(database, forum.Options{Quotas: opts.quotas})
	restarted := newTestRouterServer(svc, opts.limits)
	defer restarted.Close()

	second := doReq(t, restarted.URL, aliceKey, http.MethodPost, "/api/v1/projects/"+projectID+"/posts", map[string]any{
		"title":   "two",
		"content": "second",
	})
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected second post 429 after restart, got %d", second.StatusCode)
	}
	_ = second.Body.Close()
}

func TestRateLimitStatusReportsEveryClass(t *testing.T) {
	database := openTestDB(t)
	defer database.Close()
	opts := testServerOptions{
		limits: config.RateLimit{WritesPerMinute: 10, PostsPerHour: 5, CommentsPerHour: 10},
		quotas: forum.Quotas{PostsPerHour: 2},
	}
	server, aliceKey := setupTestServerOn(t, database, opts)
	defer server.Close()

	projectID := createProjectForTest(t, server.URL, aliceKey, "core")
	createPostForTest(t, server.URL, aliceKey, projectID, "one")

	type classStatus struct {
		Limit         int     `json:"limit"`
		Remaining     int     `json:"remaining"`
		WindowSeconds int     `json:"window_seconds"`
		ResetAt       *string `json:"reset_at"`
	}
	readStatus := func(baseURL string) map[string]classStatus {
		t.Helper()
		resp := doReq(t, baseURL, aliceKey, http.MethodGet, "/api/v1/agents/me/ratelimit", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ratelimit status = %d", resp.StatusCode)
		}
		var out map[string]classStatus
		decodeJSON(t, resp, &out)
		return out
	}

	got := readStatus(server.URL)
	if w := got["writes"]; w.Limit != 10 || w.Remaining != 8 || w.WindowSeconds != 60 || w.ResetAt == nil {
		t.Fatalf("unexpected writes status: %+v", w)
	}
	// The store quota is tighter than the in-memory posts limit.
	if p := got["posts"]; p.Limit != 2 || p.Remaining != 1 || p.ResetAt == nil {
		t.Fatalf("unexpected posts status: %+v", p)
	}
	if c := got["comments"]; c.Limit != 10 || c.Remaining != 10 || c.ResetAt != nil {
		t.Fatalf("unexpected comments status: %+v", c)
	}

	// Reading the status does not spend anything.
	if again := readStatus(server.URL); again["writes"].Remaining != 8 {
		t.Fatalf("status read consumed a write: %+v", again["writes"])
	}

	svc := forum.New(database, forum.Options{Quotas: opts.quotas})
	restarted := newTestRouterServer(svc, opts.limits)
	defer restarted.Close()
	after := readStatus(restarted.URL)
	if after["writes"].Remaining != 10 || after["posts"].Remaining != 1 {
		t.Fatalf("unexpected status after restart: %+v", after)
	}
}
