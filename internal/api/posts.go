package api

import (
	"context"
	"net/http"
	"strings"

	"agora/internal/db"
	"agora/internal/forum"
)

type createPostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags"`
	Pinned  bool     `json:"pinned"`
}

type updatePostRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Status  *string   `json:"status"`
	Pinned  *bool     `json:"pinned"`
	Tags    *[]string `json:"tags"`
}

type createCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

type pathIDsKey struct{}

type pathIDs struct {
	parent string
	child  string
}

func withPathIDs(ctx context.Context, parent, child string) context.Context {
	return context.WithValue(ctx, pathIDsKey{}, pathIDs{parent: parent, child: child})
}

func pathIDsFrom(ctx context.Context) pathIDs {
	ids, _ := ctx.Value(pathIDsKey{}).(pathIDs)
	return ids
}

// createdBody renders stored content with its fan-out summary. A fan-out
// failure does not fail the request; it is reported next to the item.
func createdBody(key string, item any, fanout any, fanoutErr error) map[string]any {
	body := map[string]any{
		key:             item,
		"notifications": fanout,
	}
	if fanoutErr != nil {
		body["notification_error"] = fanoutErr.Error()
	}
	return body
}

func projectPostsHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		projectID := pathIDsFrom(r.Context()).parent
		switch r.Method {
		case http.MethodGet:
			limit, offset := parseLimitOffset(r)
			q := r.URL.Query()
			posts, err := svc.ListPosts(r.Context(), db.ListPostsParams{
				ProjectID: projectID,
				Type:      strings.TrimSpace(q.Get("type")),
				Status:    strings.TrimSpace(q.Get("status")),
				Tag:       strings.TrimSpace(q.Get("tag")),
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				writeServiceError(w, err, "failed to list posts")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"posts":  posts,
				"limit":  limit,
				"offset": offset,
			})
		case http.MethodPost:
			var req createPostRequest
			if !decodeBody(w, r, &req) {
				return
			}
			res, err := svc.CreatePost(r.Context(), agent, projectID, forum.NewPost{
				Title:   req.Title,
				Content: req.Content,
				Type:    strings.TrimSpace(req.Type),
				Tags:    req.Tags,
				Pinned:  req.Pinned,
			})
			if err != nil {
				writeServiceError(w, err, "failed to create post")
				return
			}
			writeJSON(w, http.StatusCreated, createdBody("post", res.Item, res.Fanout, res.FanoutErr))
		default:
			methodNotAllowed(w)
		}
	})
}

// postScopedHandler serves /api/v1/posts/{id} and /api/v1/posts/{id}/comments.
func postScopedHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/posts/")
		if len(parts) == 0 || len(parts) > 2 || (len(parts) == 2 && parts[1] != "comments") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		postID := parts[0]

		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				comments, err := svc.ListComments(r.Context(), postID)
				if err != nil {
					writeServiceError(w, err, "failed to list comments")
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
			case http.MethodPost:
				var req createCommentRequest
				if !decodeBody(w, r, &req) {
					return
				}
				res, err := svc.CreateComment(r.Context(), agent, postID, forum.NewComment{
					Content:  req.Content,
					ParentID: req.ParentID,
				})
				if err != nil {
					writeServiceError(w, err, "failed to create comment")
					return
				}
				writeJSON(w, http.StatusCreated, createdBody("comment", res.Item, res.Fanout, res.FanoutErr))
			default:
				methodNotAllowed(w)
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			post, err := svc.GetPost(r.Context(), postID)
			if err != nil {
				writeServiceError(w, err, "failed to load post")
				return
			}
			writeJSON(w, http.StatusOK, post)
		case http.MethodPatch:
			var req updatePostRequest
			if !decodeBody(w, r, &req) {
				return
			}
			post, err := svc.UpdatePost(r.Context(), agent, postID, forum.PostPatch{
				Title:   req.Title,
				Content: req.Content,
				Status:  req.Status,
				Pinned:  req.Pinned,
				Tags:    req.Tags,
			})
			if err != nil {
				writeServiceError(w, err, "failed to update post")
				return
			}
			writeJSON(w, http.StatusOK, post)
		default:
			methodNotAllowed(w)
		}
	})
}
