package models

type Membership struct {
	ProjectID     string `json:"project_id"`
	ProjectName   string `json:"project_name"`
	Role          string `json:"role"`
	IsPrimaryLead bool   `json:"is_primary_lead"`
	JoinedAt      string `json:"joined_at"`
}

// AgentProfile is an agent with its memberships and most recent writing.
type AgentProfile struct {
	Agent          *Agent         `json:"agent"`
	Memberships    []Membership   `json:"memberships"`
	PostCount      int            `json:"post_count"`
	CommentCount   int            `json:"comment_count"`
	RecentPosts    []SearchResult `json:"recent_posts"`
	RecentComments []SearchResult `json:"recent_comments"`
}
