package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"agora/internal/models"
)

type CreatePostParams struct {
	ProjectID string
	AuthorID  string
	Title     string
	Content   string
	Type      string
	Tags      []string
	// Mentions are resolved agent names. They are stored once and never
	// recomputed.
	Mentions []string
	Pinned   bool
	Now      time.Time
}

type ListPostsParams struct {
	ProjectID string
	Type      string
	Status    string
	Tag       string
	Limit     int
	Offset    int
}

// UpdatePostParams changes only the non-nil fields.
type UpdatePostParams struct {
	Title   *string
	Content *string
	Status  *string
	Pinned  *bool
	Tags    *[]string
	Now     time.Time
}

func CreatePost(ctx context.Context, database *sql.DB, params CreatePostParams) (*models.Post, error) {
	id := newID()
	now := formatTime(params.Now)
	postType := params.Type
	if postType == "" {
		postType = "discussion"
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO posts (id, project_id, author_id, title, content, type, status, pinned, created, updated)
VALUES (?, ?, ?, ?, ?, ?, 'open', ?, ?, ?)`,
		id, params.ProjectID, params.AuthorID, params.Title, params.Content, postType,
		boolToInt(params.Pinned), now, now); err != nil {
		return nil, err
	}
	if err := replaceTagsTx(ctx, tx, id, params.Tags); err != nil {
		return nil, err
	}
	for _, name := range params.Mentions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_mentions (post_id, agent_name) VALUES (?, ?)`,
			id, name,
		); err != nil {
			return nil, err
		}
	}

	p, err := getPost(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func GetPost(ctx context.Context, database *sql.DB, id string) (*models.Post, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return getPost(ctx, tx, id)
}

const postColumns = `
SELECT p.id, p.project_id, p.author_id, a.name, p.title, p.content, p.type, p.status, p.pinned,
       (SELECT COUNT(1) FROM comments c WHERE c.post_id = p.id), p.created, p.updated
FROM posts p
JOIN agents a ON a.id = p.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p         models.Post
		pinnedInt int
	)
	if err := row.Scan(
		&p.ID, &p.ProjectID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content,
		&p.Type, &p.Status, &pinnedInt, &p.CommentCount, &p.Created, &p.Updated,
	); err != nil {
		return nil, err
	}
	p.Pinned = pinnedInt == 1
	return &p, nil
}

func getPost(ctx context.Context, tx *sql.Tx, id string) (*models.Post, error) {
	p, err := scanPost(tx.QueryRowContext(ctx, postColumns+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, err
	}
	if p.Tags, err = listStringsTx(ctx, tx, `SELECT tag FROM post_tags WHERE post_id = ? ORDER BY tag ASC`, id); err != nil {
		return nil, err
	}
	if p.Mentions, err = listStringsTx(ctx, tx, `SELECT agent_name FROM post_mentions WHERE post_id = ? ORDER BY agent_name ASC`, id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns pinned posts first, then newest first.
func ListPosts(ctx context.Context, database *sql.DB, params ListPostsParams) ([]models.Post, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	where := []string{"p.project_id = ?"}
	args := []any{params.ProjectID}
	if params.Type != "" {
		where = append(where, "p.type = ?")
		args = append(args, params.Type)
	}
	if params.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, params.Status)
	}
	if params.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM post_tags t WHERE t.post_id = p.id AND t.tag = ?)")
		args = append(args, params.Tag)
	}
	query := postColumns + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY p.pinned DESC, p.created DESC, p.rowid DESC LIMIT ? OFFSET ?"
	args = append(args, params.Limit, params.Offset)

	tx, err := database.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Tags, err = listStringsTx(ctx, tx, `SELECT tag FROM post_tags WHERE post_id = ? ORDER BY tag ASC`, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Mentions, err = listStringsTx(ctx, tx, `SELECT agent_name FROM post_mentions WHERE post_id = ? ORDER BY agent_name ASC`, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdatePost never touches post_mentions.
func UpdatePost(ctx context.Context, database *sql.DB, id string, params UpdatePostParams) (*models.Post, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sets := []string{"updated = ?"}
	args := []any{formatTime(params.Now)}
	if params.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *params.Title)
	}
	if params.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *params.Content)
	}
	if params.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *params.Status)
	}
	if params.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, boolToInt(*params.Pinned))
	}
	args = append(args, id)

	res, err := tx.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, sql.ErrNoRows
	}
	if params.Tags != nil {
		if err := replaceTagsTx(ctx, tx, id, *params.Tags); err != nil {
			return nil, err
		}
	}

	p, err := getPost(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func replaceTagsTx(ctx context.Context, tx *sql.Tx, postID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, postID); err != nil {
		return err
	}
	for _, tag := range dedupeStrings(tags) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag) VALUES (?, ?)`,
			postID, tag,
		); err != nil {
			return err
		}
	}
	return nil
}

func listStringsTx(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func dedupeStrings(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
