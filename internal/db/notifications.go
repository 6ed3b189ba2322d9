package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"agora/internal/models"
)

func InsertNotification(ctx context.Context, database *sql.DB, agentID string, payload models.Payload, now time.Time) (*models.Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	n := &models.Notification{
		ID:      newID(),
		AgentID: agentID,
		Type:    payload.Kind(),
		Payload: payload,
		Created: formatTime(now),
	}
	if _, err := database.ExecContext(ctx, `
INSERT INTO notifications (id, agent_id, type, post_id, payload, read, created)
VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.ID, n.AgentID, string(n.Type), payload.PostRef(), string(raw), n.Created); err != nil {
		return nil, err
	}
	return n, nil
}

// HasRecentUnreadThreadUpdate reports whether the agent already holds an
// unread thread_update for postID created strictly after since.
func HasRecentUnreadThreadUpdate(ctx context.Context, database *sql.DB, agentID, postID string, since time.Time) (bool, error) {
	var exists int
	err := database.QueryRowContext(ctx, `
SELECT EXISTS (
    SELECT 1 FROM notifications
    WHERE agent_id = ? AND type = 'thread_update' AND read = 0 AND post_id = ? AND created > ?
)`, agentID, postID, formatTime(since)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func ListNotifications(ctx context.Context, database *sql.DB, agentID string, filter models.NotificationFilter) ([]models.Notification, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	query := `
SELECT id, agent_id, type, payload, read, created
FROM notifications
WHERE agent_id = ?`
	args := []any{agentID}
	if filter.UnreadOnly {
		query += " AND read = 0"
	}
	query += " ORDER BY created DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var (
			n       models.Notification
			typ     string
			raw     string
			readInt int
		)
		if err := rows.Scan(&n.ID, &n.AgentID, &typ, &raw, &readInt, &n.Created); err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		if n.Payload, err = models.DecodePayload(n.Type, []byte(raw)); err != nil {
			return nil, fmt.Errorf("notification %s: %w", n.ID, err)
		}
		n.Read = readInt == 1
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead returns sql.ErrNoRows when the notification does not
// exist or belongs to another agent. Marking an already read notification
// succeeds.
func MarkNotificationRead(ctx context.Context, database *sql.DB, agentID, id string) error {
	res, err := database.ExecContext(ctx, `
UPDATE notifications
SET read = 1
WHERE id = ? AND agent_id = ?`, id, agentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func MarkAllNotificationsRead(ctx context.Context, database *sql.DB, agentID string) (int64, error) {
	res, err := database.ExecContext(ctx, `
UPDATE notifications
SET read = 1
WHERE agent_id = ? AND read = 0`, agentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func CountUnreadNotifications(ctx context.Context, database *sql.DB, agentID string) (int, error) {
	var count int
	err := database.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM notifications WHERE agent_id = ? AND read = 0`, agentID,
	).Scan(&count)
	return count, err
}

// NotificationStore adapts the notification functions to the ledger's
// storage interface.
type NotificationStore struct {
	DB *sql.DB
}

func (s NotificationStore) Insert(ctx context.Context, agentID string, payload models.Payload, now time.Time) (*models.Notification, error) {
	return InsertNotification(ctx, s.DB, agentID, payload, now)
}

func (s NotificationStore) HasRecentUnreadThreadUpdate(ctx context.Context, agentID, postID string, since time.Time) (bool, error) {
	return HasRecentUnreadThreadUpdate(ctx, s.DB, agentID, postID, since)
}

func (s NotificationStore) List(ctx context.Context, agentID string, filter models.NotificationFilter) ([]models.Notification, error) {
	return ListNotifications(ctx, s.DB, agentID, filter)
}

func (s NotificationStore) MarkRead(ctx context.Context, agentID, id string) error {
	return MarkNotificationRead(ctx, s.DB, agentID, id)
}

func (s NotificationStore) MarkAllRead(ctx context.Context, agentID string) (int64, error) {
	return MarkAllNotificationsRead(ctx, s.DB, agentID)
}

// ThreadAuthors lists who has commented on a post.
type ThreadAuthors struct {
	DB *sql.DB
}

func (t ThreadAuthors) CommentAuthorIDs(ctx context.Context, postID string) ([]string, error) {
	return ListCommentAuthorIDs(ctx, t.DB, postID)
}
