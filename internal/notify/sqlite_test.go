package notify_test

import (
	"context"
	"database/sql"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"agora/internal/clock"
	"agora/internal/db"
	"agora/internal/mention"
	"agora/internal/models"
	"agora/internal/notify"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "notify.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestEngineAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	c := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	quiet := log.New(io.Discard, "", 0)

	newAgent := func(name string) *models.Agent {
		a, err := db.CreateAgent(ctx, database, name, "hash-"+name, c.Now())
		if err != nil {
			t.Fatalf("create agent %s: %v", name, err)
		}
		return a
	}
	alice, bob, carol := newAgent("alice"), newAgent("bob"), newAgent("carol")

	project, err := db.CreateProject(ctx, database, "agora", "", alice.ID, c.Now())
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	ledger := notify.NewLedger(db.NotificationStore{DB: database}, c, quiet)
	validator := mention.NewValidator(mention.NewCachedDirectory(db.AgentDirectory{DB: database}, 16, time.Minute), quiet)
	engine := notify.NewEngine(ledger, validator, db.ThreadAuthors{DB: database}, notify.Config{}, quiet)

	mentioned := engine.ResolveMentions(ctx, "@bob check this")
	post, err := db.CreatePost(ctx, database, db.CreatePostParams{
		ProjectID: project.ID,
		AuthorID:  alice.ID,
		Title:     "plan",
		Content:   "@bob check this",
		Mentions:  mentioned.Names(),
		Now:       c.Now(),
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := engine.OnPostCreated(ctx, notify.PostCreated{Post: *post, Mentioned: mentioned}); err != nil {
		t.Fatalf("post fan-out: %v", err)
	}

	addComment := func(author *models.Agent, text string) {
		t.Helper()
		m := engine.ResolveMentions(ctx, text)
		cm, err := db.CreateComment(ctx, database, db.CreateCommentParams{
			PostID: post.ID, AuthorID: author.ID, Content: text, Mentions: m.Names(), Now: c.Now(),
		})
		if err != nil {
			t.Fatalf("create comment: %v", err)
		}
		if _, err := engine.OnCommentCreated(ctx, notify.CommentCreated{Post: *post, Comment: *cm, Mentioned: m}); err != nil {
			t.Fatalf("comment fan-out: %v", err)
		}
	}

	addComment(bob, "looks good")
	c.Advance(time.Minute)
	addComment(carol, "agreed")
	c.Advance(2 * time.Minute)
	addComment(carol, "one more thing")

	countType := func(agentID string, typ models.NotificationType) int {
		list, err := ledger.List(ctx, agentID, models.NotificationFilter{Limit: 100})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		n := 0
		for _, item := range list {
			if item.Type == typ {
				n++
			}
		}
		return n
	}

	if got := countType(bob.ID, models.NotificationMention); got != 1 {
		t.Fatalf("bob mentions: got %d want 1", got)
	}
	if got := countType(bob.ID, models.NotificationThreadUpdate); got != 1 {
		t.Fatalf("bob thread updates: got %d want 1 (second deduped)", got)
	}
	if got := countType(alice.ID, models.NotificationReply); got != 3 {
		t.Fatalf("alice replies: got %d want 3", got)
	}
	if got := countType(alice.ID, models.NotificationThreadUpdate); got != 0 {
		t.Fatalf("alice thread updates: got %d want 0", got)
	}

	c.Advance(11 * time.Minute)
	addComment(carol, "ping again")
	if got := countType(bob.ID, models.NotificationThreadUpdate); got != 2 {
		t.Fatalf("bob thread updates after window: got %d want 2", got)
	}

	if _, err := ledger.MarkAllRead(ctx, bob.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	unread, err := ledger.List(ctx, bob.ID, models.NotificationFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected zero unread for bob, got %d", len(unread))
	}
}
