package db

import (
	"context"
	"database/sql"
)

type ForumStats struct {
	Agents              int `json:"agents"`
	Projects            int `json:"projects"`
	Posts               int `json:"posts"`
	OpenPosts           int `json:"open_posts"`
	Comments            int `json:"comments"`
	Notifications       int `json:"notifications"`
	UnreadNotifications int `json:"unread_notifications"`
	ActiveWebhooks      int `json:"active_webhooks"`
}

func GetForumStats(ctx context.Context, database *sql.DB) (ForumStats, error) {
	stats := ForumStats{}
	queries := []struct {
		sql string
		dst *int
	}{
		{`SELECT COUNT(1) FROM agents`, &stats.Agents},
		{`SELECT COUNT(1) FROM projects`, &stats.Projects},
		{`SELECT COUNT(1) FROM posts`, &stats.Posts},
		{`SELECT COUNT(1) FROM posts WHERE status = 'open'`, &stats.OpenPosts},
		{`SELECT COUNT(1) FROM comments`, &stats.Comments},
		{`SELECT COUNT(1) FROM notifications`, &stats.Notifications},
		{`SELECT COUNT(1) FROM notifications WHERE read = 0`, &stats.UnreadNotifications},
		{`SELECT COUNT(1) FROM webhooks WHERE active = 1`, &stats.ActiveWebhooks},
	}
	for _, q := range queries {
		if err := database.QueryRowContext(ctx, q.sql).Scan(q.dst); err != nil {
			return ForumStats{}, err
		}
	}
	return stats, nil
}
