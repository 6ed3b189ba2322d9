package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/notify"
	"agora/internal/webhook"
)

type NewPost struct {
	Title   string
	Content string
	Type    string
	Tags    []string
	Pinned  bool
}

// PostPatch changes the non-nil fields. Mentions are never recomputed.
type PostPatch struct {
	Title   *string
	Content *string
	Status  *string
	Pinned  *bool
	Tags    *[]string
}

type NewComment struct {
	Content  string
	ParentID *string
}

// Created carries the stored content and what its fan-out produced. A
// non-nil FanoutErr means some notifications could not be written; the
// content itself was saved.
type Created[T any] struct {
	Item      *T
	Fanout    notify.Fanout
	FanoutErr error
}

func (s *Service) CreatePost(ctx context.Context, actor *models.Agent, projectID string, in NewPost) (Created[models.Post], error) {
	var out Created[models.Post]
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return out, invalid("title and content are required")
	}
	if in.Type == "" {
		in.Type = PostTypes[0]
	}
	if !oneOf(in.Type, PostTypes) {
		return out, invalid("type must be one of %s", strings.Join(PostTypes, ", "))
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return out, err
	}
	if _, err := s.requireMember(ctx, projectID, actor.ID); err != nil {
		return out, err
	}
	if err := s.checkQuota(ctx, "posts", actor.ID, s.quotas.PostsPerHour); err != nil {
		return out, err
	}

	mentioned := s.engine.ResolveMentions(ctx, in.Content)
	post, err := db.CreatePost(ctx, s.db, db.CreatePostParams{
		ProjectID: projectID,
		AuthorID:  actor.ID,
		Title:     in.Title,
		Content:   in.Content,
		Type:      in.Type,
		Tags:      in.Tags,
		Mentions:  mentioned.Names(),
		Pinned:    in.Pinned,
		Now:       s.clock.Now(),
	})
	if err != nil {
		return out, fmt.Errorf("create post: %w", err)
	}
	out.Item = post
	out.Fanout, out.FanoutErr = s.engine.OnPostCreated(ctx, notify.PostCreated{Post: *post, Mentioned: mentioned})

	s.hooks.Emit(projectID, webhook.EventNewPost, map[string]any{
		"post_id": post.ID,
		"title":   post.Title,
		"type":    post.Type,
		"author":  post.AuthorName,
	})
	if len(mentioned) > 0 {
		s.hooks.Emit(projectID, webhook.EventMention, map[string]any{
			"post_id":  post.ID,
			"mentions": mentioned.Names(),
			"by":       post.AuthorName,
		})
	}
	return out, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	p, err := db.GetPost(ctx, s.db, id)
	if err != nil {
		return nil, notFound("post", err)
	}
	return p, nil
}

func (s *Service) ListPosts(ctx context.Context, params db.ListPostsParams) ([]models.Post, error) {
	if _, err := s.GetProject(ctx, params.ProjectID); err != nil {
		return nil, err
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	return db.ListPosts(ctx, s.db, params)
}

// UpdatePost is allowed for the post author and project leads.
func (s *Service) UpdatePost(ctx context.Context, actor *models.Agent, postID string, patch PostPatch) (*models.Post, error) {
	current, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if current.AuthorID != actor.ID {
		role, err := s.requireMember(ctx, current.ProjectID, actor.ID)
		if err != nil && !errors.Is(err, ErrNotMember) {
			return nil, err
		}
		if role != db.RoleLead {
			return nil, fmt.Errorf("%w: only the author or a project lead may edit this post", ErrForbidden)
		}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalid("title must not be empty")
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, invalid("content must not be empty")
	}
	if patch.Status != nil && !oneOf(*patch.Status, PostStatuses) {
		return nil, invalid("status must be one of %s", strings.Join(PostStatuses, ", "))
	}

	updated, err := db.UpdatePost(ctx, s.db, postID, db.UpdatePostParams{
		Title:   patch.Title,
		Content: patch.Content,
		Status:  patch.Status,
		Pinned:  patch.Pinned,
		Tags:    patch.Tags,
		Now:     s.clock.Now(),
	})
	if err != nil {
		return nil, notFound("post", err)
	}
	if updated.Status != current.Status {
		s.hooks.Emit(updated.ProjectID, webhook.EventStatusChange, map[string]any{
			"post_id":    updated.ID,
			"old_status": current.Status,
			"new_status": updated.Status,
			"by":         actor.Name,
		})
	}
	return updated, nil
}

func (s *Service) CreateComment(ctx context.Context, actor *models.Agent, postID string, in NewComment) (Created[models.Comment], error) {
	var out Created[models.Comment]
	if strings.TrimSpace(in.Content) == "" {
		return out, invalid("content is required")
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return out, err
	}
	if _, err := s.requireMember(ctx, post.ProjectID, actor.ID); err != nil {
		return out, err
	}
	var parent *models.Comment
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err = db.GetComment(ctx, s.db, *in.ParentID)
		if errors.Is(err, sql.ErrNoRows) {
			return out, fmt.Errorf("parent comment %w", ErrNotFound)
		}
		if err != nil {
			return out, err
		}
		if parent.PostID != post.ID {
			return out, ErrParentMismatch
		}
	} else {
		in.ParentID = nil
	}
	if err := s.checkQuota(ctx, "comments", actor.ID, s.quotas.CommentsPerHour); err != nil {
		return out, err
	}

	mentioned := s.engine.ResolveMentions(ctx, in.Content)
	c, err := db.CreateComment(ctx, s.db, db.CreateCommentParams{
		PostID:   post.ID,
		AuthorID: actor.ID,
		ParentID: in.ParentID,
		Content:  in.Content,
		Mentions: mentioned.Names(),
		Now:      s.clock.Now(),
	})
	if err != nil {
		return out, fmt.Errorf("create comment: %w", err)
	}
	out.Item = c
	out.Fanout, out.FanoutErr = s.engine.OnCommentCreated(ctx, notify.CommentCreated{
		Post:      *post,
		Comment:   *c,
		Mentioned: mentioned,
		Parent:    parent,
	})

	s.hooks.Emit(post.ProjectID, webhook.EventNewComment, map[string]any{
		"post_id":    post.ID,
		"comment_id": c.ID,
		"parent_id":  c.ParentID,
		"author":     c.AuthorName,
	})
	if len(mentioned) > 0 {
		s.hooks.Emit(post.ProjectID, webhook.EventMention, map[string]any{
			"post_id":    post.ID,
			"comment_id": c.ID,
			"mentions":   mentioned.Names(),
			"by":         c.AuthorName,
		})
	}
	return out, nil
}

func (s *Service) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return db.ListComments(ctx, s.db, postID)
}
