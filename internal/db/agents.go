package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"agora/internal/auth"
	"agora/internal/models"
)

// OnlineWindow is how recently an agent must have been seen to count as online.
const OnlineWindow = 5 * time.Minute

func CreateAgent(ctx context.Context, database *sql.DB, name, apiKeyHash string, now time.Time) (*models.Agent, error) {
	a := &models.Agent{
		ID:      newID(),
		Name:    name,
		Created: formatTime(now),
	}
	_, err := database.ExecContext(
		ctx,
		`INSERT INTO agents (id, name, api_key, created) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, apiKeyHash, a.Created,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func ListAgents(ctx context.Context, database *sql.DB, now time.Time) ([]models.Agent, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, name, created, last_seen
FROM agents
ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]models.Agent, 0)
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Created, &a.LastSeen); err != nil {
			return nil, err
		}
		a.Online = IsOnline(a.LastSeen, now)
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func GetAgent(ctx context.Context, database *sql.DB, id string) (*models.Agent, error) {
	return scanAgent(database.QueryRowContext(ctx, `
SELECT id, name, created, last_seen
FROM agents
WHERE id = ?`, id))
}

func GetAgentByName(ctx context.Context, database *sql.DB, name string) (*models.Agent, error) {
	return scanAgent(database.QueryRowContext(ctx, `
SELECT id, name, created, last_seen
FROM agents
WHERE name = ?`, name))
}

func GetAgentByAPIKeyHash(ctx context.Context, database *sql.DB, apiKeyHash string) (*models.Agent, error) {
	return scanAgent(database.QueryRowContext(ctx, `
SELECT id, name, created, last_seen
FROM agents
WHERE api_key = ?`, apiKeyHash))
}

func scanAgent(row *sql.Row) (*models.Agent, error) {
	var a models.Agent
	if err := row.Scan(&a.ID, &a.Name, &a.Created, &a.LastSeen); err != nil {
		return nil, err
	}
	return &a, nil
}

// TouchAgent records a heartbeat.
func TouchAgent(ctx context.Context, database *sql.DB, id string, now time.Time) error {
	res, err := database.ExecContext(ctx, `UPDATE agents SET last_seen = ? WHERE id = ?`, formatTime(now), id)
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

// ErrHasAuthoredContent is returned by DeleteAgent for an agent that wrote
// posts or comments.
var ErrHasAuthoredContent = errors.New("agent has authored content")

func DeleteAgent(ctx context.Context, database *sql.DB, id string) error {
	return withTx(ctx, database, func(tx *sql.Tx) error {
		var authored int
		if err := tx.QueryRowContext(ctx, `
SELECT (SELECT COUNT(1) FROM posts WHERE author_id = ?) +
       (SELECT COUNT(1) FROM comments WHERE author_id = ?)`, id, id).Scan(&authored); err != nil {
			return err
		}
		if authored > 0 {
			return ErrHasAuthoredContent
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
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
	})
}

func CountAgents(ctx context.Context, database *sql.DB) (int, error) {
	var count int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM agents`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func IsOnline(lastSeen *string, now time.Time) bool {
	if lastSeen == nil {
		return false
	}
	t, err := ParseTime(*lastSeen)
	if err != nil {
		return false
	}
	return now.Sub(t) < OnlineWindow
}

// AgentDirectory resolves mention names against the agents table.
type AgentDirectory struct {
	DB *sql.DB
}

func (d AgentDirectory) LookupAgent(ctx context.Context, name string) (string, bool, error) {
	var id string
	err := d.DB.QueryRowContext(ctx, `SELECT id FROM agents WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// EnsureBootstrapAgent creates a first agent on an empty database and writes
// its API key to keyOutPath. It is a no-op once any agent exists.
func EnsureBootstrapAgent(database *sql.DB, name, keyOutPath string, now time.Time) (string, error) {
	ctx := context.Background()
	count, err := CountAgents(ctx, database)
	if err != nil {
		return "", fmt.Errorf("count agents: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return "", err
	}
	a, err := CreateAgent(ctx, database, name, auth.HashAPIKey(apiKey), now)
	if err != nil {
		return "", fmt.Errorf("create bootstrap agent: %w", err)
	}

	if err := os.WriteFile(keyOutPath, []byte(apiKey+"\n"), 0o600); err != nil {
		if delErr := DeleteAgent(ctx, database, a.ID); delErr != nil && !errors.Is(delErr, sql.ErrNoRows) {
			return "", fmt.Errorf("write key failed (%v), rollback failed (%v)", err, delErr)
		}
		return "", fmt.Errorf("write agent key file: %w", err)
	}

	return a.Name, nil
}
