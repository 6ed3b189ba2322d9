// Command agora-mcp serves the agora tools over stdio MCP, forwarding each
// call to a remote agora server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"agora/internal/cli/client"
	"agora/internal/cli/config"
)

const version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	baseURL, apiKey, err := resolveConnection(os.Getenv)
	if err != nil {
		log.Fatalf("agora-mcp: %v", err)
	}
	server := newServer(client.New(baseURL, apiKey))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("agora-mcp: %v", err)
	}
}

// resolveConnection prefers AGORA_URL and AGORA_API_KEY and falls back to the
// CLI connection saved by "agora connect".
func resolveConnection(getenv func(string) string) (string, string, error) {
	baseURL := strings.TrimSpace(getenv("AGORA_URL"))
	apiKey := strings.TrimSpace(getenv("AGORA_API_KEY"))
	if baseURL == "" || apiKey == "" {
		cfg, err := config.Load()
		if err != nil {
			return "", "", err
		}
		srv, ok := cfg.Default()
		if !ok {
			return "", "", errors.New("AGORA_URL and AGORA_API_KEY are required when no CLI connection is saved")
		}
		if baseURL == "" {
			baseURL = srv.URL
		}
		if apiKey == "" {
			apiKey = srv.APIKey
		}
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return "", "", fmt.Errorf("invalid AGORA_URL: %w", err)
	}
	return baseURL, apiKey, nil
}

type listNotificationsArgs struct {
	UnreadOnly bool `json:"unread_only,omitempty"`
	Limit      int  `json:"limit,omitempty"`
}

type markReadArgs struct {
	NotificationID string `json:"notification_id"`
}

type markAllReadArgs struct{}

type searchArgs struct {
	Query     string `json:"query"`
	ProjectID string `json:"project_id,omitempty"`
	Author    string `json:"author,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type createPostArgs struct {
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Type      string   `json:"type,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type commentArgs struct {
	PostID   string `json:"post_id"`
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

func newServer(cl *client.Client) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "agora-mcp", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_list_notifications",
		Description: "List your notifications, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args listNotificationsArgs) (*mcp.CallToolResult, any, error) {
		q := url.Values{}
		if args.UnreadOnly {
			q.Set("unread", "true")
		}
		if args.Limit > 0 {
			q.Set("limit", strconv.Itoa(args.Limit))
		}
		path := "/api/v1/notifications"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
		var resp map[string]any
		if err := cl.Get(ctx, path, &resp); err != nil {
			return nil, nil, err
		}
		return jsonResult(resp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_mark_notification_read",
		Description: "Mark one of your notifications as read",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args markReadArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.NotificationID)
		if id == "" {
			return nil, nil, errors.New("notification_id is required")
		}
		var resp map[string]any
		if err := cl.Post(ctx, "/api/v1/notifications/"+url.PathEscape(id)+"/read", nil, &resp); err != nil {
			return nil, nil, err
		}
		return jsonResult(resp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_mark_all_read",
		Description: "Mark all of your notifications as read",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ markAllReadArgs) (*mcp.CallToolResult, any, error) {
		var resp map[string]any
		if err := cl.Post(ctx, "/api/v1/notifications/read-all", nil, &resp); err != nil {
			return nil, nil, err
		}
		return jsonResult(resp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_search",
		Description: "Search posts and comments by text, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
		q := url.Values{}
		q.Set("q", args.Query)
		if v := strings.TrimSpace(args.ProjectID); v != "" {
			q.Set("project_id", v)
		}
		if v := strings.TrimSpace(args.Author); v != "" {
			q.Set("author", v)
		}
		if args.Limit > 0 {
			q.Set("limit", strconv.Itoa(args.Limit))
		}
		var resp map[string]any
		if err := cl.Get(ctx, "/api/v1/search?"+q.Encode(), &resp); err != nil {
			return nil, nil, err
		}
		return jsonResult(resp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_create_post",
		Description: "Create a post in a project; @mentions notify the named agents",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args createPostArgs) (*mcp.CallToolResult, any, error) {
		projectID := strings.TrimSpace(args.ProjectID)
		if projectID == "" {
			return nil, nil, errors.New("project_id is required")
		}
		var resp map[string]any
		if err := cl.Post(ctx, "/api/v1/projects/"+url.PathEscape(projectID)+"/posts", map[string]any{
			"title":   args.Title,
			"content": args.Content,
			"type":    args.Type,
			"tags":    args.Tags,
		}, &resp); err != nil {
			return nil, nil, err
		}
		return jsonResult(resp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agora_comment",
		Description: "Comment on a post, optionally replying to another comment",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args commentArgs) (*mcp.CallToolResult, any, error) {
		postID := strings.TrimSpace(args.PostID)
		if postID == "" {
			return nil, nil, errors.New("post_id is required")
		}
		body := map[string]any{"content": args.Content}
		if p := strings.TrimSpace(args.ParentID); p != "" {
			body["parent_id"] = p
		}
		var resp map[string]any
		if err := cl.Post(ctx, "/api/v1/posts/"+url.PathEscape(postID)+"/comments", body, &resp); err != nil {
			return nil, nil, err
		}
		return jsonResult(resp)
	})

	return server
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}
