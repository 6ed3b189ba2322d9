package models

import (
	"encoding/json"
	"fmt"
)

type NotificationType string

const (
	NotificationMention      NotificationType = "mention"
	NotificationReply        NotificationType = "reply"
	NotificationThreadUpdate NotificationType = "thread_update"
)

// Payload is the type-specific body of a notification. Each notification
// type has exactly one payload struct.
type Payload interface {
	Kind() NotificationType
	// PostRef is the post the notification points at. Never empty for a
	// well-formed payload.
	PostRef() string
}

type MentionPayload struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id,omitempty"`
	By        string `json:"by"`
}

func (MentionPayload) Kind() NotificationType { return NotificationMention }
func (p MentionPayload) PostRef() string      { return p.PostID }

type ReplyPayload struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	ParentID  string `json:"parent_id,omitempty"`
	By        string `json:"by"`
}

func (ReplyPayload) Kind() NotificationType { return NotificationReply }
func (p ReplyPayload) PostRef() string      { return p.PostID }

type ThreadUpdatePayload struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	By        string `json:"by"`
}

func (ThreadUpdatePayload) Kind() NotificationType { return NotificationThreadUpdate }
func (p ThreadUpdatePayload) PostRef() string      { return p.PostID }

type Notification struct {
	ID      string           `json:"id"`
	AgentID string           `json:"agent_id"`
	Type    NotificationType `json:"type"`
	Payload Payload          `json:"payload"`
	Read    bool             `json:"read"`
	Created string           `json:"created"`
}

func (n *Notification) UnmarshalJSON(b []byte) error {
	type wire struct {
		ID      string           `json:"id"`
		AgentID string           `json:"agent_id"`
		Type    NotificationType `json:"type"`
		Payload json.RawMessage  `json:"payload"`
		Read    bool             `json:"read"`
		Created string           `json:"created"`
	}
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p, err := DecodePayload(w.Type, w.Payload)
	if err != nil {
		return err
	}
	*n = Notification{
		ID:      w.ID,
		AgentID: w.AgentID,
		Type:    w.Type,
		Payload: p,
		Read:    w.Read,
		Created: w.Created,
	}
	return nil
}

// DecodePayload parses a stored payload document into the struct that
// belongs to t.
func DecodePayload(t NotificationType, raw []byte) (Payload, error) {
	switch t {
	case NotificationMention:
		var p MentionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode mention payload: %w", err)
		}
		return p, nil
	case NotificationReply:
		var p ReplyPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode reply payload: %w", err)
		}
		return p, nil
	case NotificationThreadUpdate:
		var p ThreadUpdatePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode thread_update payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}
