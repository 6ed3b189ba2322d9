package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agora/internal/mention"
	"agora/internal/models"
)

// Threads lists who has already commented on a post.
type Threads interface {
	CommentAuthorIDs(ctx context.Context, postID string) ([]string, error)
}

type Config struct {
	DedupWindow time.Duration
}

type Engine struct {
	ledger    *Ledger
	validator *mention.Validator
	threads   Threads
	window    time.Duration
	logger    *log.Logger
}

func NewEngine(ledger *Ledger, validator *mention.Validator, threads Threads, cfg Config, logger *log.Logger) *Engine {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		ledger:    ledger,
		validator: validator,
		threads:   threads,
		window:    cfg.DedupWindow,
		logger:    logger,
	}
}

type PostCreated struct {
	Post      models.Post
	Mentioned mention.Set
}

type CommentCreated struct {
	Post      models.Post
	Comment   models.Comment
	Mentioned mention.Set
	// Parent is the comment being replied to, if any.
	Parent *models.Comment
}

// Fanout counts the notifications written for one event.
type Fanout struct {
	Mentions      int `json:"mentions"`
	Replies       int `json:"replies"`
	ThreadUpdates int `json:"thread_updates"`
}

// ResolveMentions extracts @names from text and keeps the registered ones.
func (e *Engine) ResolveMentions(ctx context.Context, text string) mention.Set {
	return e.validator.Validate(ctx, mention.Extract(text))
}

// OnPostCreated notifies every mentioned agent, the author included.
func (e *Engine) OnPostCreated(ctx context.Context, ev PostCreated) (Fanout, error) {
	var out Fanout
	var errs []error
	for _, m := range ev.Mentioned {
		payload := models.MentionPayload{PostID: ev.Post.ID, By: ev.Post.AuthorName}
		if _, err := e.ledger.Create(ctx, m.AgentID, payload); err != nil {
			errs = append(errs, err)
			continue
		}
		out.Mentions++
	}
	err := errors.Join(errs...)
	if err != nil {
		e.logger.Printf("notify: post %s mention fan-out: %v", ev.Post.ID, err)
	}
	return out, err
}

// OnCommentCreated runs the mention, reply and thread_update branches. Every
// branch is attempted; failures are logged and returned joined.
func (e *Engine) OnCommentCreated(ctx context.Context, ev CommentCreated) (Fanout, error) {
	var out Fanout
	var errs []error

	branches := []struct {
		name string
		run  func(context.Context, CommentCreated) (int, error)
		dst  *int
	}{
		{"mention", e.commentMentions, &out.Mentions},
		{"reply", e.replies, &out.Replies},
		{"thread_update", e.threadUpdates, &out.ThreadUpdates},
	}
	for _, b := range branches {
		n, err := b.run(ctx, ev)
		*b.dst = n
		if err != nil {
			e.logger.Printf("notify: comment %s %s branch: %v", ev.Comment.ID, b.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
		}
	}
	return out, errors.Join(errs...)
}

func (e *Engine) commentMentions(ctx context.Context, ev CommentCreated) (int, error) {
	created := 0
	var errs []error
	for _, m := range ev.Mentioned {
		payload := models.MentionPayload{
			PostID:    ev.Post.ID,
			CommentID: ev.Comment.ID,
			By:        ev.Comment.AuthorName,
		}
		if _, err := e.ledger.Create(ctx, m.AgentID, payload); err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}
	return created, errors.Join(errs...)
}

func (e *Engine) replies(ctx context.Context, ev CommentCreated) (int, error) {
	candidates := make([]string, 0, 2)
	parentID := ""
	if ev.Parent != nil {
		candidates = append(candidates, ev.Parent.AuthorID)
		parentID = ev.Parent.ID
	}
	candidates = append(candidates, ev.Post.AuthorID)
	audience := Audience{Actor: ev.Comment.AuthorID, PostAuthor: ev.Post.AuthorID}

	created := 0
	var errs []error
	for _, agentID := range Apply(ReplyExclusions, candidates, audience) {
		payload := models.ReplyPayload{
			PostID:    ev.Post.ID,
			CommentID: ev.Comment.ID,
			ParentID:  parentID,
			By:        ev.Comment.AuthorName,
		}
		if _, err := e.ledger.Create(ctx, agentID, payload); err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}
	return created, errors.Join(errs...)
}

func (e *Engine) threadUpdates(ctx context.Context, ev CommentCreated) (int, error) {
	authors, err := e.threads.CommentAuthorIDs(ctx, ev.Post.ID)
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}
	participants := append([]string{ev.Post.AuthorID}, authors...)
	audience := Audience{Actor: ev.Comment.AuthorID, PostAuthor: ev.Post.AuthorID}

	created := 0
	var errs []error
	for _, agentID := range Apply(ThreadUpdateExclusions, participants, audience) {
		ok, err := e.ledger.CreateDedupedThreadUpdate(ctx, agentID, ev.Post.ID, ev.Comment.ID, ev.Comment.AuthorName, e.window)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(errs...)
}
