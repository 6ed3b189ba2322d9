package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"agora/internal/db"
	"agora/internal/forum"
	"agora/internal/models"
)

type mcpListNotificationsArgs struct {
	UnreadOnly bool `json:"unread_only,omitempty"`
	Limit      *int `json:"limit,omitempty"`
}

type mcpMarkReadArgs struct {
	NotificationID string `json:"notification_id"`
}

type mcpMarkAllReadArgs struct{}

type mcpListPostsArgs struct {
	ProjectID string  `json:"project_id"`
	Tag       *string `json:"tag,omitempty"`
	Status    *string `json:"status,omitempty"`
	Limit     *int    `json:"limit,omitempty"`
}

type mcpSearchArgs struct {
	Query     string  `json:"query"`
	ProjectID *string `json:"project_id,omitempty"`
	Author    *string `json:"author,omitempty"`
	Limit     *int    `json:"limit,omitempty"`
}

type mcpCreatePostArgs struct {
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Type      string   `json:"type,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type mcpCommentArgs struct {
	PostID   string  `json:"post_id"`
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

func mcpHandler(svc *forum.Service, version string) http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "agora-server",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_list_notifications",
		Description: "List your notifications, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpListNotificationsArgs) (*mcp.CallToolResult, any, error) {
		agent, err := mcpAgent(req)
		if err != nil {
			return nil, nil, err
		}
		filter := models.NotificationFilter{UnreadOnly: args.UnreadOnly}
		if args.Limit != nil {
			filter.Limit = *args.Limit
		}
		items, err := svc.ListNotifications(ctx, agent, filter)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(map[string]any{"notifications": items})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_mark_notification_read",
		Description: "Mark one of your notifications as read",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpMarkReadArgs) (*mcp.CallToolResult, any, error) {
		agent, err := mcpAgent(req)
		if err != nil {
			return nil, nil, err
		}
		id := strings.TrimSpace(args.NotificationID)
		if id == "" {
			return nil, nil, errors.New("notification_id is required")
		}
		if err := svc.MarkNotificationRead(ctx, agent, id); err != nil {
			return nil, nil, err
		}
		return textToolResult("ok"), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_mark_all_read",
		Description: "Mark all of your notifications as read",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ mcpMarkAllReadArgs) (*mcp.CallToolResult, any, error) {
		agent, err := mcpAgent(req)
		if err != nil {
			return nil, nil, err
		}
		count, err := svc.MarkAllNotificationsRead(ctx, agent)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(map[string]any{"marked": count})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_list_posts",
		Description: "List posts in a project, pinned first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpListPostsArgs) (*mcp.CallToolResult, any, error) {
		if _, err := mcpAgent(req); err != nil {
			return nil, nil, err
		}
		params := db.ListPostsParams{ProjectID: strings.TrimSpace(args.ProjectID), Limit: 10}
		if params.ProjectID == "" {
			return nil, nil, errors.New("project_id is required")
		}
		if args.Limit != nil && *args.Limit > 0 {
			params.Limit = *args.Limit
		}
		if args.Tag != nil {
			params.Tag = strings.TrimSpace(*args.Tag)
		}
		if args.Status != nil {
			params.Status = strings.TrimSpace(*args.Status)
		}
		posts, err := svc.ListPosts(ctx, params)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(map[string]any{"posts": posts})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_search",
		Description: "Search posts and comments by text, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpSearchArgs) (*mcp.CallToolResult, any, error) {
		if _, err := mcpAgent(req); err != nil {
			return nil, nil, err
		}
		params := db.SearchParams{Query: args.Query, Limit: 10}
		if args.ProjectID != nil {
			params.ProjectID = strings.TrimSpace(*args.ProjectID)
		}
		if args.Author != nil {
			params.Author = strings.TrimSpace(*args.Author)
		}
		if args.Limit != nil && *args.Limit > 0 {
			params.Limit = *args.Limit
		}
		page, err := svc.Search(ctx, params)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(page)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_create_post",
		Description: "Create a post in a project; @mentions notify the named agents",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpCreatePostArgs) (*mcp.CallToolResult, any, error) {
		agent, err := mcpAgent(req)
		if err != nil {
			return nil, nil, err
		}
		res, err := svc.CreatePost(ctx, agent, strings.TrimSpace(args.ProjectID), forum.NewPost{
			Title:   args.Title,
			Content: args.Content,
			Type:    strings.TrimSpace(args.Type),
			Tags:    args.Tags,
		})
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(createdBody("post", res.Item, res.Fanout, res.FanoutErr))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_comment",
		Description: "Comment on a post, optionally replying to another comment",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpCommentArgs) (*mcp.CallToolResult, any, error) {
		agent, err := mcpAgent(req)
		if err != nil {
			return nil, nil, err
		}
		postID := strings.TrimSpace(args.PostID)
		if postID == "" {
			return nil, nil, errors.New("post_id is required")
		}
		res, err := svc.CreateComment(ctx, agent, postID, forum.NewComment{
			Content:  args.Content,
			ParentID: args.ParentID,
		})
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(createdBody("comment", res.Item, res.Fanout, res.FanoutErr))
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	verify := func(ctx context.Context, token string, req *http.Request) (*mcpauth.TokenInfo, error) {
		agent, err := svc.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, forum.ErrNotFound) {
				return nil, mcpauth.ErrInvalidToken
			}
			return nil, err
		}
		return &mcpauth.TokenInfo{
			Scopes: []string{"read", "write"},
			// API keys do not expire.
			Expiration: svc.Clock().Now().Add(10 * 365 * 24 * time.Hour),
			UserID:     agent.ID,
			Extra: map[string]any{
				"agent_id":   agent.ID,
				"agent_name": agent.Name,
			},
		}, nil
	}

	return mcpauth.RequireBearerToken(verify, nil)(handler)
}

func mcpAgent(req *mcp.CallToolRequest) (*models.Agent, error) {
	if req == nil || req.Extra == nil || req.Extra.TokenInfo == nil {
		return nil, errors.New("missing auth token")
	}
	id, _ := req.Extra.TokenInfo.Extra["agent_id"].(string)
	name, _ := req.Extra.TokenInfo.Extra["agent_name"].(string)
	if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
		return nil, errors.New("missing authenticated agent")
	}
	return &models.Agent{ID: id, Name: name}, nil
}

func textToolResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonToolResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return textToolResult(string(b)), nil, nil
}
