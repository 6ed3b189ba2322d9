package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"agora/internal/models"
)

func CreateWebhook(ctx context.Context, database *sql.DB, projectID, url string, events []string, secret string, now time.Time) (*models.Webhook, error) {
	events = dedupeStrings(events)
	if len(events) == 0 {
		return nil, errors.New("at least one event is required")
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	w := &models.Webhook{
		ID:        newID(),
		ProjectID: projectID,
		URL:       url,
		Events:    events,
		Secret:    secret,
		Active:    true,
		Created:   formatTime(now),
	}
	if _, err := database.ExecContext(ctx, `
INSERT INTO webhooks (id, project_id, url, events, secret, created, active)
VALUES (?, ?, ?, ?, ?, ?, 1)`,
		w.ID, w.ProjectID, w.URL, string(eventsJSON), nullableString(secret), w.Created); err != nil {
		return nil, err
	}
	return w, nil
}

func ListWebhooks(ctx context.Context, database *sql.DB, projectID string, activeOnly bool) ([]models.Webhook, error) {
	query := `SELECT id, project_id, url, events, COALESCE(secret, ''), created, active FROM webhooks WHERE project_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY created ASC`
	rows, err := database.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Webhook, 0)
	for rows.Next() {
		var (
			w         models.Webhook
			eventsRaw string
			activeInt int
		)
		if err := rows.Scan(&w.ID, &w.ProjectID, &w.URL, &eventsRaw, &w.Secret, &w.Created, &activeInt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(eventsRaw), &w.Events)
		w.Active = activeInt == 1
		out = append(out, w)
	}
	return out, rows.Err()
}

func SetWebhookActive(ctx context.Context, database *sql.DB, projectID, id string, active bool) error {
	res, err := database.ExecContext(ctx,
		`UPDATE webhooks SET active = ? WHERE id = ? AND project_id = ?`,
		boolToInt(active), id, projectID)
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

func DeleteWebhook(ctx context.Context, database *sql.DB, projectID, id string) error {
	res, err := database.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ? AND project_id = ?`, id, projectID)
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

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// WebhookSource feeds the dispatcher with a project's active webhooks.
type WebhookSource struct {
	DB *sql.DB
}

func (s WebhookSource) ActiveWebhooks(ctx context.Context, projectID string) ([]models.Webhook, error) {
	return ListWebhooks(ctx, s.DB, projectID, true)
}
