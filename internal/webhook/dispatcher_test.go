package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"agora/internal/models"
)

type staticSource map[string][]models.Webhook

func (s staticSource) ActiveWebhooks(_ context.Context, projectID string) ([]models.Webhook, error) {
	return s[projectID], nil
}

type failingSource struct{}

func (failingSource) ActiveWebhooks(context.Context, string) ([]models.Webhook, error) {
	return nil, errors.New("no such table: webhooks")
}

type captured struct {
	mu     sync.Mutex
	bodies [][]byte
	sigs   []string
}

func (c *captured) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, b)
		c.sigs = append(c.sigs, r.Header.Get(SignatureHeader))
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (c *captured) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func closeDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close dispatcher: %v", err)
	}
}

func TestEmitFiltersByEventAndSigns(t *testing.T) {
	var hits captured
	srv := httptest.NewServer(hits.handler(http.StatusOK))
	defer srv.Close()

	source := staticSource{
		"proj-1": {
			{ID: "w1", ProjectID: "proj-1", URL: srv.URL, Events: []string{EventNewPost}, Secret: "s3cret", Active: true},
			{ID: "w2", ProjectID: "proj-1", URL: srv.URL, Events: []string{EventMention}, Active: true},
			{ID: "w3", ProjectID: "proj-1", URL: srv.URL, Events: []string{EventNewPost}, Active: false},
		},
		"proj-2": {
			{ID: "w4", ProjectID: "proj-2", URL: srv.URL, Events: []string{EventNewPost}, Active: true},
		},
	}
	d := NewDispatcher(source, time.Second, log.New(io.Discard, "", 0))
	d.Emit("proj-1", EventNewPost, map[string]any{"post_id": "p1"})
	closeDispatcher(t, d)

	if hits.count() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", hits.count())
	}
	var env struct {
		Event     string         `json:"event"`
		ProjectID string         `json:"project_id"`
		Payload   map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(hits.bodies[0], &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Event != EventNewPost || env.ProjectID != "proj-1" || env.Payload["post_id"] != "p1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if hits.sigs[0] != Sign("s3cret", hits.bodies[0]) {
		t.Fatalf("signature mismatch: %q", hits.sigs[0])
	}
}

func TestWildcardSubscription(t *testing.T) {
	var hits captured
	srv := httptest.NewServer(hits.handler(http.StatusNoContent))
	defer srv.Close()

	d := NewDispatcher(staticSource{
		"p": {{ID: "w", URL: srv.URL, Events: []string{"*"}, Active: true}},
	}, time.Second, log.New(io.Discard, "", 0))
	for _, e := range Events {
		d.Emit("p", e, nil)
	}
	closeDispatcher(t, d)
	if hits.count() != len(Events) {
		t.Fatalf("expected %d deliveries, got %d", len(Events), hits.count())
	}
	if hits.sigs[0] != "" {
		t.Fatalf("unsigned hook must not carry a signature")
	}
}

func TestSlowAndFailingTargetsAreSwallowed(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	var hits captured
	broken := httptest.NewServer(hits.handler(http.StatusInternalServerError))
	defer broken.Close()

	var logs bytes.Buffer
	d := NewDispatcher(staticSource{
		"p": {
			{ID: "slow", URL: slow.URL, Events: []string{EventNewComment}, Active: true},
			{ID: "broken", URL: broken.URL, Events: []string{EventNewComment}, Active: true},
			{ID: "refused", URL: "http://127.0.0.1:1", Events: []string{EventNewComment}, Active: true},
		},
	}, 100*time.Millisecond, log.New(&logs, "", 0))

	begin := time.Now()
	d.Emit("p", EventNewComment, map[string]string{"comment_id": "c1"})
	if elapsed := time.Since(begin); elapsed > 50*time.Millisecond {
		t.Fatalf("emit blocked for %v", elapsed)
	}
	closeDispatcher(t, d)

	if hits.count() != 1 {
		t.Fatalf("target after the slow one should still be called, got %d", hits.count())
	}
	for _, id := range []string{"slow", "broken", "refused"} {
		if !strings.Contains(logs.String(), id) {
			t.Fatalf("expected operator log for %s, got %q", id, logs.String())
		}
	}
}

func TestSourceFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	d := NewDispatcher(failingSource{}, time.Second, log.New(&logs, "", 0))
	d.Emit("p", EventMention, nil)
	closeDispatcher(t, d)
	if !strings.Contains(logs.String(), "list hooks") {
		t.Fatalf("expected lookup failure log, got %q", logs.String())
	}
}

func TestIsEvent(t *testing.T) {
	for _, e := range Events {
		if !IsEvent(e) {
			t.Fatalf("%s should be recognised", e)
		}
	}
	if IsEvent("new_reply") {
		t.Fatalf("new_reply is not an event")
	}
}
