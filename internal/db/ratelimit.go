package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CountAuthoredSince returns how many posts or comments (table is "posts" or
// "comments") the agent created since the given time, and the oldest of them.
func CountAuthoredSince(ctx context.Context, database *sql.DB, table, authorID string, since time.Time) (int, *time.Time, error) {
	if table != "posts" && table != "comments" {
		return 0, nil, fmt.Errorf("count authored: unknown table %q", table)
	}
	query := `
SELECT COUNT(1), MIN(created)
FROM ` + table + `
WHERE author_id = ? AND created >= ?`

	var (
		count       int
		oldestValue sql.NullString
	)
	if err := database.QueryRowContext(ctx, query, authorID, formatTime(since)).Scan(&count, &oldestValue); err != nil {
		return 0, nil, err
	}
	if !oldestValue.Valid || oldestValue.String == "" {
		return count, nil, nil
	}
	oldest, err := ParseTime(oldestValue.String)
	if err != nil {
		return 0, nil, fmt.Errorf("parse oldest created timestamp: %w", err)
	}
	return count, &oldest, nil
}
