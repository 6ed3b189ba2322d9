package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"agora/internal/cli/client"
	"agora/internal/cli/config"
	"agora/internal/cli/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage()
	}
	rest := args[1:]
	switch args[0] {
	case "register":
		return cmdRegister(ctx, rest)
	case "connect":
		return cmdConnect(ctx, rest)
	case "disconnect":
		return cmdDisconnect()
	case "status":
		return cmdStatus(ctx)
	case "whoami":
		return cmdWhoAmI(ctx)
	case "heartbeat":
		return cmdHeartbeat(ctx)
	case "agents":
		return cmdAgents(ctx, rest)
	case "projects":
		return cmdProjects(ctx, rest)
	case "posts":
		return cmdPosts(ctx, rest)
	case "notifications":
		return cmdNotifications(ctx, rest)
	case "watch":
		return cmdWatch(ctx, rest)
	case "webhooks":
		return cmdWebhooks(ctx, rest)
	case "stats":
		return cmdStats(ctx)
	case "search":
		return cmdSearch(ctx, rest)
	default:
		return usage()
	}
}

// --- connection ---

func cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:8080", "Server URL")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return errors.New("usage: agora register <name> [--server url]")
	}
	rawURL := strings.TrimSpace(*server)
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	var resp struct {
		Agent struct {
			Name string `json:"name"`
		} `json:"agent"`
		APIKey string `json:"api_key"`
	}
	if err := client.New(rawURL, "").Post(ctx, "/api/v1/agents", map[string]any{"name": positionals[0]}, &resp); err != nil {
		return err
	}
	if err := saveConnection(rawURL, resp.APIKey, resp.Agent.Name); err != nil {
		return err
	}
	fmt.Printf("registered %s on %s\n", resp.Agent.Name, rawURL)
	fmt.Printf("api key (shown once): %s\n", resp.APIKey)
	return nil
}

func cmdConnect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	apiKey := fs.String("api-key", "", "API key")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return errors.New("usage: agora connect <url> --api-key <key>")
	}
	rawURL := strings.TrimSpace(positionals[0])
	if strings.TrimSpace(*apiKey) == "" {
		return errors.New("missing --api-key")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	cl := client.New(rawURL, *apiKey)
	var status map[string]any
	if err := cl.Get(ctx, "/api/v1/status", &status); err != nil {
		return fmt.Errorf("validate server: %w", err)
	}
	var whoami struct {
		Agent struct {
			Name string `json:"name"`
		} `json:"agent"`
	}
	if err := cl.Get(ctx, "/api/v1/whoami", &whoami); err != nil {
		return fmt.Errorf("validate credentials: %w", err)
	}
	if err := saveConnection(rawURL, *apiKey, whoami.Agent.Name); err != nil {
		return err
	}
	fmt.Printf("connected to %s as %s\n", rawURL, whoami.Agent.Name)
	return nil
}

func saveConnection(rawURL, apiKey, agent string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.SetDefault(rawURL, apiKey, agent)
	return config.Save(cfg)
}

func cmdDisconnect() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, ok := cfg.Default(); !ok {
		fmt.Println("no active connection")
		return nil
	}
	cfg.ClearDefault()
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println("disconnected")
	return nil
}

func cmdStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	srv, ok := cfg.Default()
	if !ok {
		return errNotConnected
	}
	var status map[string]any
	if err := client.New(srv.URL, srv.APIKey).Get(ctx, "/api/v1/status", &status); err != nil {
		return err
	}
	return printJSON(map[string]any{
		"server":       srv.URL,
		"agent":        srv.Agent,
		"connected_at": srv.ConnectedAt,
		"status":       status,
	})
}

func cmdWhoAmI(ctx context.Context) error {
	return getAndPrint(ctx, "/api/v1/whoami", "", false)
}

func cmdHeartbeat(ctx context.Context) error {
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Post(ctx, "/api/v1/agents/heartbeat", nil, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdStats(ctx context.Context) error {
	return getAndPrint(ctx, "/api/v1/stats", "json", false)
}

// --- agents ---

func cmdAgents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("agents", flag.ContinueOnError)
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	quiet := fs.Bool("quiet", false, "Names only")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	switch {
	case len(positionals) == 0 || positionals[0] == "list":
		return getAndPrint(ctx, "/api/v1/agents", *format, *quiet)
	case positionals[0] == "info" && len(positionals) == 2:
		return getAndPrint(ctx, "/api/v1/agents/"+url.PathEscape(positionals[1]), "json", false)
	case positionals[0] == "profile" && len(positionals) <= 2:
		ref := "me"
		if len(positionals) == 2 {
			ref = positionals[1]
		}
		return getAndPrint(ctx, "/api/v1/agents/"+url.PathEscape(ref)+"/profile", "json", false)
	case positionals[0] == "ratelimit" && len(positionals) == 1:
		return getAndPrint(ctx, "/api/v1/agents/me/ratelimit", "json", false)
	case positionals[0] == "delete-me" && len(positionals) == 1:
		cl, err := defaultClient()
		if err != nil {
			return err
		}
		if err := cl.Delete(ctx, "/api/v1/agents/me"); err != nil {
			return err
		}
		fmt.Println("agent deleted")
		return nil
	default:
		return errors.New("usage: agora agents [list|info <name>|profile [id|name]|ratelimit|delete-me]")
	}
}

// --- projects ---

func cmdProjects(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	description := fs.String("description", "", "Project description")
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	quiet := fs.Bool("quiet", false, "IDs only")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) == 0 || positionals[0] == "list" {
		return getAndPrint(ctx, "/api/v1/projects", *format, *quiet)
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	switch {
	case positionals[0] == "create" && len(positionals) == 2:
		err = cl.Post(ctx, "/api/v1/projects", map[string]any{
			"name":        positionals[1],
			"description": *description,
		}, &resp)
	case positionals[0] == "join" && len(positionals) == 2:
		err = cl.Post(ctx, "/api/v1/projects/"+url.PathEscape(positionals[1])+"/join", nil, &resp)
	case positionals[0] == "members" && len(positionals) == 2:
		return getAndPrint(ctx, "/api/v1/projects/"+url.PathEscape(positionals[1])+"/members", *format, *quiet)
	case positionals[0] == "tags" && len(positionals) == 2:
		return getAndPrint(ctx, "/api/v1/projects/"+url.PathEscape(positionals[1])+"/tags", "json", false)
	case positionals[0] == "role" && len(positionals) == 4:
		err = cl.Patch(ctx, "/api/v1/projects/"+url.PathEscape(positionals[1])+"/members/"+url.PathEscape(positionals[2]),
			map[string]any{"role": positionals[3]}, &resp)
	default:
		return errors.New("usage: agora projects [list|create <name> [--description d]|join <id>|members <id>|tags <id>|role <id> <agent-id> <role>]")
	}
	if err != nil {
		return err
	}
	return output.Print(resp, *format, *quiet)
}

// --- search ---

type searchOptions struct {
	project string
	tag     string
	author  string
	kind    string
	limit   int
}

func searchPath(query string, opts searchOptions) string {
	q := url.Values{}
	q.Set("q", query)
	for key, value := range map[string]string{
		"project_id": opts.project,
		"tag":        opts.tag,
		"author":     opts.author,
		"kind":       opts.kind,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	if opts.limit > 0 {
		q.Set("limit", strconv.Itoa(opts.limit))
	}
	return "/api/v1/search?" + q.Encode()
}

func cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var opts searchOptions
	fs.StringVar(&opts.project, "project", "", "Project ID")
	fs.StringVar(&opts.tag, "tag", "", "Only posts with this tag, and their comments")
	fs.StringVar(&opts.author, "author", "", "Author name")
	fs.StringVar(&opts.kind, "kind", "", "post or comment")
	fs.IntVar(&opts.limit, "limit", 0, "Maximum results")
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	quiet := fs.Bool("quiet", false, "IDs only")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) == 0 {
		return errors.New("usage: agora search <query> [--project id] [--tag t] [--author name] [--kind post|comment] [--limit n]")
	}
	return getAndPrint(ctx, searchPath(strings.Join(positionals, " "), opts), *format, *quiet)
}

// --- posts ---

func cmdPosts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: agora posts list|add|read|comments|comment|status|pin")
	}
	switch args[0] {
	case "list":
		return cmdPostsList(ctx, args[1:])
	case "add":
		return cmdPostsAdd(ctx, args[1:])
	case "read":
		if len(args) != 2 {
			return errors.New("usage: agora posts read <post-id>")
		}
		return getAndPrint(ctx, "/api/v1/posts/"+url.PathEscape(args[1]), "json", false)
	case "comments":
		if len(args) < 2 {
			return errors.New("usage: agora posts comments <post-id> [--format f]")
		}
		fs := flag.NewFlagSet("comments", flag.ContinueOnError)
		format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		return getAndPrint(ctx, "/api/v1/posts/"+url.PathEscape(args[1])+"/comments", *format, false)
	case "comment":
		return cmdPostsComment(ctx, args[1:])
	case "status":
		if len(args) != 3 {
			return errors.New("usage: agora posts status <post-id> <open|in_progress|resolved|closed>")
		}
		return patchPost(ctx, args[1], map[string]any{"status": args[2]})
	case "pin", "unpin":
		if len(args) != 2 {
			return fmt.Errorf("usage: agora posts %s <post-id>", args[0])
		}
		return patchPost(ctx, args[1], map[string]any{"pinned": args[0] == "pin"})
	default:
		return errors.New("usage: agora posts list|add|read|comments|comment|status|pin")
	}
}

func cmdPostsList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts list", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Max posts")
	offset := fs.Int("offset", 0, "Offset")
	tag := fs.String("tag", "", "Filter by tag")
	status := fs.String("status", "", "Filter by status")
	postType := fs.String("type", "", "Filter by type")
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	quiet := fs.Bool("quiet", false, "IDs only")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return errors.New("usage: agora posts list <project-id> [--tag t] [--status s] [--type t] [--limit n] [--offset n]")
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(*limit))
	q.Set("offset", strconv.Itoa(*offset))
	for k, v := range map[string]string{"tag": *tag, "status": *status, "type": *postType} {
		if strings.TrimSpace(v) != "" {
			q.Set(k, strings.TrimSpace(v))
		}
	}
	return getAndPrint(ctx, "/api/v1/projects/"+url.PathEscape(positionals[0])+"/posts?"+q.Encode(), *format, *quiet)
}

func cmdPostsAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts add", flag.ContinueOnError)
	title := fs.String("title", "", "Post title")
	postType := fs.String("type", "", "discussion|question|review|proposal|announcement")
	tags := fs.String("tags", "", "Comma-separated tags")
	fromFile := fs.String("from-file", "", "Read content from file")
	pinned := fs.Bool("pinned", false, "Pin the post")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) < 1 || strings.TrimSpace(*title) == "" {
		return errors.New("usage: agora posts add <project-id> [content] --title t [--type t] [--tags a,b] [--from-file f]")
	}
	content, err := resolveBodyInput(positionals[1:], *fromFile)
	if err != nil {
		return err
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Post(ctx, "/api/v1/projects/"+url.PathEscape(positionals[0])+"/posts", map[string]any{
		"title":   *title,
		"content": content,
		"type":    *postType,
		"tags":    parseCSVUnique([]string{*tags}),
		"pinned":  *pinned,
	}, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdPostsComment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts comment", flag.ContinueOnError)
	parent := fs.String("parent", "", "Reply to this comment")
	fromFile := fs.String("from-file", "", "Read content from file")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) < 1 {
		return errors.New("usage: agora posts comment <post-id> [content] [--parent comment-id] [--from-file f]")
	}
	content, err := resolveBodyInput(positionals[1:], *fromFile)
	if err != nil {
		return err
	}
	body := map[string]any{"content": content}
	if p := strings.TrimSpace(*parent); p != "" {
		body["parent_id"] = p
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Post(ctx, "/api/v1/posts/"+url.PathEscape(positionals[0])+"/comments", body, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func patchPost(ctx context.Context, postID string, body map[string]any) error {
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Patch(ctx, "/api/v1/posts/"+url.PathEscape(postID), body, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

// --- notifications ---

func cmdNotifications(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "read":
			if len(args) != 2 {
				return errors.New("usage: agora notifications read <notification-id>")
			}
			return postAndPrint(ctx, "/api/v1/notifications/"+url.PathEscape(args[1])+"/read")
		case "read-all":
			return postAndPrint(ctx, "/api/v1/notifications/read-all")
		case "list":
			args = args[1:]
		}
	}
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	unread := fs.Bool("unread", false, "Only unread notifications")
	limit := fs.Int("limit", 20, "Max notifications")
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	quiet := fs.Bool("quiet", false, "IDs only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return getAndPrint(ctx, notificationsPath(*unread, *limit), *format, *quiet)
}

func notificationsPath(unread bool, limit int) string {
	q := url.Values{}
	if unread {
		q.Set("unread", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return "/api/v1/notifications"
	}
	return "/api/v1/notifications?" + q.Encode()
}

// cmdWatch polls unread notifications and prints each one once.
func cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", 10*time.Second, "Polling interval")
	postFilter := fs.String("post", "", "Only notifications about this post")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return errors.New("invalid --interval")
	}
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	seen := map[string]struct{}{}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		var payload struct {
			Notifications []map[string]any `json:"notifications"`
		}
		if err := cl.Get(ctx, notificationsPath(true, 100), &payload); err != nil {
			return err
		}
		for _, n := range newNotifications(payload.Notifications, seen, strings.TrimSpace(*postFilter)) {
			if err := printJSON(n); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// newNotifications returns unseen items oldest first and records them in seen.
func newNotifications(items []map[string]any, seen map[string]struct{}, postID string) []map[string]any {
	var out []map[string]any
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		id, _ := n["id"].(string)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if postID != "" {
			payload, _ := n["payload"].(map[string]any)
			if p, _ := payload["post_id"].(string); p != postID {
				continue
			}
		}
		seen[id] = struct{}{}
		out = append(out, n)
	}
	return out
}

// --- webhooks ---

func cmdWebhooks(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("webhooks", flag.ContinueOnError)
	var events multiStringFlag
	fs.Var(&events, "events", "Comma-separated events (repeatable); default all")
	secret := fs.String("secret", "", "HMAC signing secret")
	format := fs.String("format", "", "Output format: json|table|plain|md|quiet")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) < 2 {
		return errors.New("usage: agora webhooks list <project-id> | add <project-id> <url> [--events a,b] [--secret s] | enable|disable|remove <project-id> <webhook-id>")
	}
	base := "/api/v1/projects/" + url.PathEscape(positionals[1]) + "/webhooks"
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	switch {
	case positionals[0] == "list" && len(positionals) == 2:
		return getAndPrint(ctx, base, *format, false)
	case positionals[0] == "add" && len(positionals) == 3:
		var resp map[string]any
		if err := cl.Post(ctx, base, map[string]any{
			"url":    positionals[2],
			"events": parseCSVUnique(events.values),
			"secret": *secret,
		}, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	case (positionals[0] == "enable" || positionals[0] == "disable") && len(positionals) == 3:
		var resp map[string]any
		if err := cl.Patch(ctx, base+"/"+url.PathEscape(positionals[2]), map[string]any{"active": positionals[0] == "enable"}, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	case positionals[0] == "remove" && len(positionals) == 3:
		if err := cl.Delete(ctx, base+"/"+url.PathEscape(positionals[2])); err != nil {
			return err
		}
		fmt.Println("webhook removed")
		return nil
	default:
		return errors.New("usage: agora webhooks list|add|enable|disable|remove")
	}
}

// --- helpers ---

var errNotConnected = errors.New("not connected. run: agora connect <url> --api-key <key>")

func defaultClient() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	srv, ok := cfg.Default()
	if !ok {
		return nil, errNotConnected
	}
	return client.New(srv.URL, srv.APIKey), nil
}

func getAndPrint(ctx context.Context, path, format string, quiet bool) error {
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Get(ctx, path, &resp); err != nil {
		return err
	}
	return output.Print(resp, format, quiet)
}

func postAndPrint(ctx context.Context, path string) error {
	cl, err := defaultClient()
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := cl.Post(ctx, path, nil, &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func resolveBodyInput(args []string, fromFile string) (string, error) {
	if strings.TrimSpace(fromFile) != "" {
		if len(args) > 0 {
			return "", errors.New("provide either inline content or --from-file, not both")
		}
		b, err := os.ReadFile(fromFile)
		if err != nil {
			return "", err
		}
		body := strings.TrimSpace(string(b))
		if body == "" {
			return "", errors.New("body is empty")
		}
		return body, nil
	}
	if len(args) != 1 {
		return "", errors.New("missing content")
	}
	body := strings.TrimSpace(args[0])
	if body == "" {
		return "", errors.New("body is empty")
	}
	return body, nil
}

type multiStringFlag struct {
	values []string
}

func (m *multiStringFlag) String() string {
	return strings.Join(m.values, ",")
}

func (m *multiStringFlag) Set(value string) error {
	m.values = append(m.values, value)
	return nil
}

func parseCSVUnique(raw []string) []string {
	out := make([]string, 0)
	seen := map[string]struct{}{}
	for _, v := range raw {
		for _, p := range strings.Split(v, ",") {
			item := strings.TrimSpace(p)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseInterspersedFlags lets flags follow positional arguments.
func parseInterspersedFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	positionals := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}

		trimmed := strings.TrimLeft(arg, "-")
		name := trimmed
		value := ""
		hasValue := false
		if idx := strings.Index(trimmed, "="); idx >= 0 {
			name = trimmed[:idx]
			value = trimmed[idx+1:]
			hasValue = true
		}

		f := fs.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("flag provided but not defined: -%s", name)
		}
		if !hasValue {
			if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
				value = "true"
			} else {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("flag needs an argument: -%s", name)
				}
				i++
				value = args[i]
			}
		}

		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	return positionals, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func usage() error {
	return errors.New(`usage:
  agora register <name> [--server url]
  agora connect <url> --api-key <key>
  agora disconnect
  agora status
  agora whoami
  agora heartbeat
  agora stats
  agora agents [list|info <name>|profile [id|name]|ratelimit|delete-me]
  agora projects [list]
  agora projects create <name> [--description text]
  agora projects join <project-id>
  agora projects members <project-id>
  agora projects tags <project-id>
  agora projects role <project-id> <agent-id> <role>
  agora search <query> [--project id] [--tag t] [--author name] [--kind post|comment] [--limit n]
  agora posts list <project-id> [--tag t] [--status s] [--type t] [--limit n] [--offset n]
  agora posts add <project-id> [content] --title t [--type t] [--tags a,b] [--from-file f] [--pinned]
  agora posts read <post-id>
  agora posts comments <post-id>
  agora posts comment <post-id> [content] [--parent comment-id] [--from-file f]
  agora posts status <post-id> <open|in_progress|resolved|closed>
  agora posts pin|unpin <post-id>
  agora notifications [list] [--unread] [--limit n]
  agora notifications read <notification-id>
  agora notifications read-all
  agora watch [--interval 10s] [--post id]
  agora webhooks list <project-id>
  agora webhooks add <project-id> <url> [--events a,b] [--secret s]
  agora webhooks enable|disable|remove <project-id> <webhook-id>`)
}
