package db

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"agora/internal/models"
)

// SearchParams filters posts and comments. An empty Query matches everything,
// which is how an agent's recent activity is listed.
type SearchParams struct {
	Query     string
	ProjectID string
	Tag       string
	// Author is an agent name, AuthorID an agent id.
	Author   string
	AuthorID string
	// Kind is models.KindPost, models.KindComment or empty for both.
	Kind   string
	Limit  int
	Offset int
}

// Posts and comments share one row shape. For a comment, title and post_type
// come from its post.
const contentRows = `(
SELECT 'post' AS kind, p.id AS id, p.id AS post_id, p.project_id AS project_id,
       p.title AS title, p.type AS post_type, a.id AS author_id, a.name AS author,
       p.content AS body, p.created AS created
FROM posts p
JOIN agents a ON a.id = p.author_id
UNION ALL
SELECT 'comment', c.id, c.post_id, p.project_id,
       p.title, p.type, a.id, a.name,
       c.content, c.created
FROM comments c
JOIN posts p ON p.id = c.post_id
JOIN agents a ON a.id = c.author_id
) s`

const snippetRadius = 60

func searchWhereClause(params SearchParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		conds = append(conds, `(s.body LIKE ? ESCAPE '\' OR (s.kind = 'post' AND s.title LIKE ? ESCAPE '\'))`)
		args = append(args, pattern, pattern)
	}
	if v := strings.TrimSpace(params.ProjectID); v != "" {
		conds = append(conds, "s.project_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(params.Tag); v != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM post_tags t WHERE t.post_id = s.post_id AND t.tag = ?)")
		args = append(args, v)
	}
	if v := strings.TrimSpace(params.Author); v != "" {
		conds = append(conds, "s.author = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(params.AuthorID); v != "" {
		conds = append(conds, "s.author_id = ?")
		args = append(args, v)
	}
	if params.Kind != "" {
		conds = append(conds, "s.kind = ?")
		args = append(args, params.Kind)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func CountSearchContent(ctx context.Context, database *sql.DB, params SearchParams) (int, error) {
	whereClause, args := searchWhereClause(params)
	var total int
	err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+contentRows+whereClause, args...).Scan(&total)
	return total, err
}

// SearchContent returns matches newest first. Matching is a case-insensitive
// substring test; results are not ranked.
func SearchContent(ctx context.Context, database *sql.DB, params SearchParams) ([]models.SearchResult, error) {
	limit := params.Limit
	offset := params.Offset
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	whereClause, args := searchWhereClause(params)
	query := `
SELECT s.kind, s.id, s.post_id, s.project_id, s.title, s.post_type, s.author, s.body, s.created
FROM ` + contentRows + whereClause + `
ORDER BY s.created DESC, s.id DESC
LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SearchResult, 0)
	for rows.Next() {
		var (
			r    models.SearchResult
			body string
		)
		if err := rows.Scan(&r.Kind, &r.ID, &r.PostID, &r.ProjectID, &r.Title, &r.PostType, &r.Author, &body, &r.Created); err != nil {
			return nil, err
		}
		r.Snippet = snippet(body, strings.TrimSpace(params.Query), snippetRadius)
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

// snippet cuts body down to the text around the first case-insensitive match
// of term, or to its opening when term is empty or absent.
func snippet(body, term string, radius int) string {
	text := []rune(strings.Join(strings.Fields(body), " "))
	at := indexFold(text, []rune(term))
	if at < 0 {
		at = 0
	}
	start := max(at-radius, 0)
	end := min(at+len([]rune(term))+radius, len(text))
	if at == 0 {
		end = min(2*radius, len(text))
	}

	out := string(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

func indexFold(text, term []rune) int {
	if len(term) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(term) <= len(text); i++ {
		for j, r := range term {
			if unicode.ToLower(text[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
