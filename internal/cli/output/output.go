// Package output renders API responses for the terminal.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

// view describes how one list key in a response is rendered.
type view struct {
	key     string
	columns []string
	// label is the short form used by plain and md output.
	label func(row map[string]any) string
}

var views = []view{
	{
		key:     "agents",
		columns: []string{"name", "online", "last_seen", "created"},
		label: func(r map[string]any) string {
			return field(r, "name") + onlineSuffix(r)
		},
	},
	{
		key:     "projects",
		columns: []string{"id", "name", "primary_lead_name", "created"},
		label:   func(r map[string]any) string { return field(r, "name") },
	},
	{
		key:     "members",
		columns: []string{"agent_name", "role", "online", "joined_at"},
		label: func(r map[string]any) string {
			return field(r, "agent_name") + " (" + field(r, "role") + ")" + onlineSuffix(r)
		},
	},
	{
		key:     "posts",
		columns: []string{"id", "author_name", "type", "status", "title", "created"},
		label: func(r map[string]any) string {
			return "**" + field(r, "title") + "** by " + field(r, "author_name") + " [" + field(r, "status") + "]"
		},
	},
	{
		key:     "comments",
		columns: []string{"id", "author_name", "parent_id", "created", "content"},
		label: func(r map[string]any) string {
			return field(r, "author_name") + ": " + field(r, "content")
		},
	},
	{
		key:     "notifications",
		columns: []string{"id", "type", "payload.by", "payload.post_id", "read", "created"},
		label: func(r map[string]any) string {
			return field(r, "type") + " from " + field(r, "payload.by") + " on " + field(r, "payload.post_id")
		},
	},
	{
		key:     "results",
		columns: []string{"kind", "id", "author", "title", "snippet", "created"},
		label: func(r map[string]any) string {
			return field(r, "kind") + " by " + field(r, "author") + " in **" + field(r, "title") + "**: " + field(r, "snippet")
		},
	},
	{
		key:     "webhooks",
		columns: []string{"id", "url", "active", "created"},
		label:   func(r map[string]any) string { return field(r, "url") },
	},
}

func Print(payload map[string]any, format string, quiet bool) error {
	return Fprint(os.Stdout, payload, format, quiet)
}

func Fprint(w io.Writer, payload map[string]any, format string, quiet bool) error {
	if quiet {
		format = "quiet"
	}
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}

	v, rows, ok := match(payload)
	switch format {
	case "json":
		return printJSON(w, payload)
	case "table":
		if !ok {
			return printJSON(w, payload)
		}
		fmt.Fprintln(w, strings.ToUpper(strings.Join(headers(v.columns), "\t")))
		for _, row := range rows {
			cells := make([]string, len(v.columns))
			for i, c := range v.columns {
				cells[i] = field(row, c)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
	case "plain", "md":
		if !ok {
			return printJSON(w, payload)
		}
		for _, row := range rows {
			if format == "md" {
				fmt.Fprintf(w, "- `%s` %s\n", rowID(row), v.label(row))
			} else {
				fmt.Fprintf(w, "%s %s\n", rowID(row), strings.ReplaceAll(v.label(row), "**", ""))
			}
		}
	case "quiet":
		if !ok {
			if id, found := payload["id"]; found {
				fmt.Fprintln(w, str(id))
				return nil
			}
			return printJSON(w, payload)
		}
		for _, row := range rows {
			fmt.Fprintln(w, rowID(row))
		}
	default:
		return errors.New("invalid --format value")
	}
	return nil
}

func match(payload map[string]any) (view, []map[string]any, bool) {
	for _, v := range views {
		if raw, ok := payload[v.key]; ok {
			return v, toObjectSlice(raw), true
		}
	}
	return view{}, nil, false
}

func headers(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c[strings.LastIndex(c, ".")+1:]
	}
	return out
}

// rowID prefers id and falls back to name for rows without one.
func rowID(row map[string]any) string {
	if id := field(row, "id"); id != "" {
		return id
	}
	if name := field(row, "name"); name != "" {
		return name
	}
	return field(row, "agent_name")
}

func onlineSuffix(row map[string]any) string {
	if online, _ := row["online"].(bool); online {
		return " *online*"
	}
	return ""
}

// field resolves a dotted path such as "payload.by".
func field(row map[string]any, path string) string {
	var cur any = row
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[part]
	}
	return str(cur)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func toObjectSlice(v any) []map[string]any {
	in, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(in))
	for _, item := range in {
		if row, ok := item.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
