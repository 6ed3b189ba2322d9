package db

import (
	"context"
	"database/sql"
	"time"

	"agora/internal/models"
)

type CreateCommentParams struct {
	PostID   string
	AuthorID string
	ParentID *string
	Content  string
	Mentions []string
	Now      time.Time
}

func CreateComment(ctx context.Context, database *sql.DB, params CreateCommentParams) (*models.Comment, error) {
	id := newID()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO comments (id, post_id, author_id, parent_id, content, created)
VALUES (?, ?, ?, ?, ?, ?)`,
		id, params.PostID, params.AuthorID, params.ParentID, params.Content, formatTime(params.Now)); err != nil {
		return nil, err
	}
	for _, name := range params.Mentions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO comment_mentions (comment_id, agent_name) VALUES (?, ?)`,
			id, name,
		); err != nil {
			return nil, err
		}
	}

	c, err := getComment(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

const commentColumns = `
SELECT c.id, c.post_id, c.author_id, a.name, c.parent_id, c.content, c.created
FROM comments c
JOIN agents a ON a.id = c.author_id`

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.ParentID, &c.Content, &c.Created); err != nil {
		return nil, err
	}
	return &c, nil
}

func getComment(ctx context.Context, tx *sql.Tx, id string) (*models.Comment, error) {
	c, err := scanComment(tx.QueryRowContext(ctx, commentColumns+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, err
	}
	if c.Mentions, err = listStringsTx(ctx, tx, `SELECT agent_name FROM comment_mentions WHERE comment_id = ? ORDER BY agent_name ASC`, id); err != nil {
		return nil, err
	}
	return c, nil
}

func GetComment(ctx context.Context, database *sql.DB, id string) (*models.Comment, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return getComment(ctx, tx, id)
}

// ListComments returns a post's comments oldest first.
func ListComments(ctx context.Context, database *sql.DB, postID string) ([]models.Comment, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, commentColumns+` WHERE c.post_id = ? ORDER BY c.created ASC, c.rowid ASC`, postID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Mentions, err = listStringsTx(ctx, tx, `SELECT agent_name FROM comment_mentions WHERE comment_id = ? ORDER BY agent_name ASC`, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListCommentAuthorIDs returns the distinct authors of comments on a post.
func ListCommentAuthorIDs(ctx context.Context, database *sql.DB, postID string) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
SELECT DISTINCT author_id FROM comments WHERE post_id = ? ORDER BY author_id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
