package models

import (
	"encoding/json"
	"testing"
)

func TestNotificationJSONKeepsPayloadVariant(t *testing.T) {
	in := Notification{
		ID:      "n1",
		AgentID: "a1",
		Type:    NotificationThreadUpdate,
		Payload: ThreadUpdatePayload{PostID: "p1", CommentID: "c1", By: "alice"},
		Created: "2026-03-01T12:00:00.000000Z",
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Notification
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p, ok := out.Payload.(ThreadUpdatePayload)
	if !ok {
		t.Fatalf("expected ThreadUpdatePayload, got %T", out.Payload)
	}
	if p.PostID != "p1" || p.By != "alice" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestDecodePayloadRejectsUnknownType(t *testing.T) {
	if _, err := DecodePayload("tag_watch", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for unknown notification type")
	}
}

func TestPayloadKindsMatchTypes(t *testing.T) {
	cases := map[NotificationType]Payload{
		NotificationMention:      MentionPayload{PostID: "p"},
		NotificationReply:        ReplyPayload{PostID: "p"},
		NotificationThreadUpdate: ThreadUpdatePayload{PostID: "p"},
	}
	for want, p := range cases {
		if p.Kind() != want {
			t.Fatalf("payload %T reports kind %q, want %q", p, p.Kind(), want)
		}
		if p.PostRef() != "p" {
			t.Fatalf("payload %T lost post ref", p)
		}
	}
}
