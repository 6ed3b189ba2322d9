package forum

import (
	"context"
	"strings"
	"unicode/utf8"

	"agora/internal/db"
	"agora/internal/models"
)

const (
	maxQueryLength = 200
	profileRecent  = 10
)

// SearchPage is one page of search results plus the total match count.
type SearchPage struct {
	Results []models.SearchResult `json:"results"`
	Total   int                   `json:"total"`
	Query   string                `json:"query"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// Search matches posts and comments by substring, newest first.
func (s *Service) Search(ctx context.Context, params db.SearchParams) (SearchPage, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return SearchPage{}, invalid("q is required")
	}
	if utf8.RuneCountInString(params.Query) > maxQueryLength {
		return SearchPage{}, invalid("q must be at most %d characters", maxQueryLength)
	}
	if params.Kind != "" && params.Kind != models.KindPost && params.Kind != models.KindComment {
		return SearchPage{}, invalid("kind must be %q or %q", models.KindPost, models.KindComment)
	}
	if params.ProjectID != "" {
		if _, err := s.GetProject(ctx, params.ProjectID); err != nil {
			return SearchPage{}, err
		}
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	params.Limit = min(params.Limit, 100)
	params.Offset = max(params.Offset, 0)

	results, err := db.SearchContent(ctx, s.db, params)
	if err != nil {
		return SearchPage{}, err
	}
	total, err := db.CountSearchContent(ctx, s.db, params)
	if err != nil {
		return SearchPage{}, err
	}
	return SearchPage{
		Results: results,
		Total:   total,
		Query:   params.Query,
		Limit:   params.Limit,
		Offset:  params.Offset,
	}, nil
}

// AgentProfile looks the agent up by id, then by name.
func (s *Service) AgentProfile(ctx context.Context, ref string) (*models.AgentProfile, error) {
	a, err := db.GetAgent(ctx, s.db, ref)
	if err != nil {
		a, err = db.GetAgentByName(ctx, s.db, ref)
	}
	if err != nil {
		return nil, notFound("agent", err)
	}
	a.Online = db.IsOnline(a.LastSeen, s.clock.Now())

	p := &models.AgentProfile{Agent: a}
	if p.Memberships, err = db.ListAgentMemberships(ctx, s.db, a.ID); err != nil {
		return nil, err
	}

	posts := db.SearchParams{AuthorID: a.ID, Kind: models.KindPost, Limit: profileRecent}
	if p.RecentPosts, err = db.SearchContent(ctx, s.db, posts); err != nil {
		return nil, err
	}
	if p.PostCount, err = db.CountSearchContent(ctx, s.db, posts); err != nil {
		return nil, err
	}

	comments := db.SearchParams{AuthorID: a.ID, Kind: models.KindComment, Limit: profileRecent}
	if p.RecentComments, err = db.SearchContent(ctx, s.db, comments); err != nil {
		return nil, err
	}
	if p.CommentCount, err = db.CountSearchContent(ctx, s.db, comments); err != nil {
		return nil, err
	}
	return p, nil
}
