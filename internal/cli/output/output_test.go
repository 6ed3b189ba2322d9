package output

import (
	"bytes"
	"strings"
	"testing"
)

func sampleNotifications() map[string]any {
	return map[string]any{
		"notifications": []any{
			map[string]any{
				"id":      "n1",
				"type":    "mention",
				"read":    false,
				"created": "2026-01-01T00:00:00.000000Z",
				"payload": map[string]any{"by": "alice", "post_id": "p1"},
			},
		},
	}
}

func TestTableResolvesNestedColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleNotifications(), "table", false); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	if lines[0] != "ID\tTYPE\tBY\tPOST_ID\tREAD\tCREATED" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "n1\tmention\talice\tp1\tfalse\t") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestPlainMarkdownAndQuiet(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleNotifications(), "plain", false); err != nil {
		t.Fatalf("plain: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "n1 mention from alice on p1" {
		t.Fatalf("plain = %q", got)
	}

	buf.Reset()
	if err := Fprint(&buf, sampleNotifications(), "md", false); err != nil {
		t.Fatalf("md: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "- `n1` mention from alice on p1" {
		t.Fatalf("md = %q", got)
	}

	buf.Reset()
	if err := Fprint(&buf, sampleNotifications(), "table", true); err != nil {
		t.Fatalf("quiet: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "n1" {
		t.Fatalf("quiet = %q", got)
	}
}

func TestUnknownPayloadFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, map[string]any{"status": "ok"}, "table", false); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	if !strings.Contains(buf.String(), `"status": "ok"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
	if err := Fprint(&buf, map[string]any{}, "yaml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
