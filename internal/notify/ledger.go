// Package notify owns per-agent notifications: the ledger that stores them
// and the engine that decides who receives what when content is created.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"agora/internal/clock"
	"agora/internal/models"
)

// DefaultDedupWindow is how long an unread thread_update suppresses another
// one for the same post.
const DefaultDedupWindow = 10 * time.Minute

var ErrInvalidPayload = errors.New("invalid notification payload")

type Store interface {
	Insert(ctx context.Context, agentID string, payload models.Payload, now time.Time) (*models.Notification, error)
	HasRecentUnreadThreadUpdate(ctx context.Context, agentID, postID string, since time.Time) (bool, error)
	List(ctx context.Context, agentID string, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, agentID, id string) error
	MarkAllRead(ctx context.Context, agentID string) (int64, error)
}

type Ledger struct {
	store  Store
	clock  clock.Clock
	logger *log.Logger
}

func NewLedger(store Store, c clock.Clock, logger *log.Logger) *Ledger {
	if c == nil {
		c = clock.System()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Ledger{store: store, clock: c, logger: logger}
}

// Create appends one unread notification. There is no dedup.
func (l *Ledger) Create(ctx context.Context, agentID string, payload models.Payload) (*models.Notification, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("%w: missing agent", ErrInvalidPayload)
	}
	if payload == nil || payload.PostRef() == "" {
		return nil, fmt.Errorf("%w: missing post_id", ErrInvalidPayload)
	}
	n, err := l.store.Insert(ctx, agentID, payload, l.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("create %s notification for %s: %w", payload.Kind(), agentID, err)
	}
	return n, nil
}

// CreateDedupedThreadUpdate creates a thread_update unless the agent already
// has an unread one for postID created strictly within window of now. The
// existing record is left untouched. A failed existence check does not stop
// creation. It reports whether a notification was written.
func (l *Ledger) CreateDedupedThreadUpdate(ctx context.Context, agentID, postID, commentID, actorName string, window time.Duration) (bool, error) {
	if postID == "" {
		return false, fmt.Errorf("%w: thread_update needs post_id", ErrInvalidPayload)
	}
	now := l.clock.Now()
	exists, err := l.store.HasRecentUnreadThreadUpdate(ctx, agentID, postID, now.Add(-window))
	if err != nil {
		l.logger.Printf("notify: dedup check for agent %s post %s failed, creating anyway: %v", agentID, postID, err)
		exists = false
	}
	if exists {
		return false, nil
	}
	payload := models.ThreadUpdatePayload{PostID: postID, CommentID: commentID, By: actorName}
	if _, err := l.store.Insert(ctx, agentID, payload, now); err != nil {
		return false, fmt.Errorf("create thread_update for %s: %w", agentID, err)
	}
	return true, nil
}

// MarkRead returns sql.ErrNoRows from the store when the notification is
// missing or owned by someone else.
func (l *Ledger) MarkRead(ctx context.Context, notificationID, agentID string) error {
	return l.store.MarkRead(ctx, agentID, notificationID)
}

func (l *Ledger) MarkAllRead(ctx context.Context, agentID string) (int64, error) {
	return l.store.MarkAllRead(ctx, agentID)
}

func (l *Ledger) List(ctx context.Context, agentID string, filter models.NotificationFilter) ([]models.Notification, error) {
	return l.store.List(ctx, agentID, filter)
}
