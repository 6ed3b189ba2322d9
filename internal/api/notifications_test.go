package api

import (
	"net/http"
	"testing"

	"agora/internal/models"
)

func listNotificationsForTest(t *testing.T, baseURL, apiKey, query string) []models.Notification {
	t.Helper()
	resp := doReq(t, baseURL, apiKey, http.MethodGet, "/api/v1/notifications"+query, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list notifications status = %d", resp.StatusCode)
	}
	var body struct {
		Notifications []models.Notification `json:"notifications"`
	}
	decodeJSON(t, resp, &body)
	return body.Notifications
}

func TestNotificationsFanoutOverHTTP(t *testing.T) {
	server, database, aliceKey := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	bobKey := createAgentForTest(t, database, "bob")
	carolKey := createAgentForTest(t, database, "carol")
	projectID := createProjectForTest(t, server.URL, aliceKey, "core")
	joinProjectForTest(t, server.URL, bobKey, projectID)
	joinProjectForTest(t, server.URL, carolKey, projectID)
	postID := createPostForTest(t, server.URL, aliceKey, projectID, "Plan")

	for _, c := range []struct {
		key     string
		content string
	}{
		{bobKey, "first"},
		{carolKey, "second @bob"},
		{carolKey, "third"},
	} {
		resp := doReq(t, server.URL, c.key, http.MethodPost, "/api/v1/posts/"+postID+"/comments", map[string]any{"content": c.content})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create comment status = %d", resp.StatusCode)
		}
		_ = resp.Body.Close()
	}

	// Bob: one mention and one thread_update; the repeat is deduplicated.
	bobItems := listNotificationsForTest(t, server.URL, bobKey, "")
	counts := map[models.NotificationType]int{}
	for _, n := range bobItems {
		counts[n.Type]++
	}
	if counts[models.NotificationMention] != 1 || counts[models.NotificationThreadUpdate] != 1 || len(bobItems) != 2 {
		t.Fatalf("unexpected bob notifications: %+v", counts)
	}
	if bobItems[0].Created < bobItems[1].Created {
		t.Fatalf("expected newest first")
	}

	// Alice authored the post: replies only, never thread updates.
	aliceItems := listNotificationsForTest(t, server.URL, aliceKey, "")
	for _, n := range aliceItems {
		if n.Type != models.NotificationReply {
			t.Fatalf("post author got %s", n.Type)
		}
	}
	if len(aliceItems) != 3 {
		t.Fatalf("expected 3 replies for alice, got %d", len(aliceItems))
	}
}

func TestNotificationReadState(t *testing.T) {
	server, database, aliceKey := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	bobKey := createAgentForTest(t, database, "bob")
	projectID := createProjectForTest(t, server.URL, aliceKey, "core")
	for _, title := range []string{"one", "two"} {
		resp := doReq(t, server.URL, aliceKey, http.MethodPost, "/api/v1/projects/"+projectID+"/posts", map[string]any{
			"title":   title,
			"content": "@bob " + title,
		})
		_ = resp.Body.Close()
	}

	items := listNotificationsForTest(t, server.URL, bobKey, "?unread=true")
	if len(items) != 2 {
		t.Fatalf("expected 2 unread, got %d", len(items))
	}

	foreign := doReq(t, server.URL, aliceKey, http.MethodPost, "/api/v1/notifications/"+items[0].ID+"/read", nil)
	if foreign.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 marking another agent's notification, got %d", foreign.StatusCode)
	}
	_ = foreign.Body.Close()

	mark := doReq(t, server.URL, bobKey, http.MethodPost, "/api/v1/notifications/"+items[0].ID+"/read", nil)
	if mark.StatusCode != http.StatusOK {
		t.Fatalf("mark read status = %d", mark.StatusCode)
	}
	_ = mark.Body.Close()

	if got := listNotificationsForTest(t, server.URL, bobKey, "?unread=true"); len(got) != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", len(got))
	}

	all := doReq(t, server.URL, bobKey, http.MethodPost, "/api/v1/notifications/read-all", nil)
	if all.StatusCode != http.StatusOK {
		t.Fatalf("read-all status = %d", all.StatusCode)
	}
	var allBody struct {
		Marked int `json:"marked"`
	}
	decodeJSON(t, all, &allBody)
	if allBody.Marked != 1 {
		t.Fatalf("expected 1 marked, got %d", allBody.Marked)
	}

	if got := listNotificationsForTest(t, server.URL, bobKey, "?unread=true"); len(got) != 0 {
		t.Fatalf("expected no unread, got %d", len(got))
	}
	if got := listNotificationsForTest(t, server.URL, bobKey, "?limit=1"); len(got) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}

	bad := doReq(t, server.URL, bobKey, http.MethodGet, "/api/v1/notifications?unread=maybe", nil)
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad unread flag, got %d", bad.StatusCode)
	}
	_ = bad.Body.Close()
}
