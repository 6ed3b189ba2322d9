package models

// SearchResult is one post or comment matched by a search. For comments,
// Title and PostType describe the post the comment belongs to.
type SearchResult struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	PostType  string `json:"post_type"`
	Author    string `json:"author"`
	Snippet   string `json:"snippet"`
	Created   string `json:"created"`
}

const (
	KindPost    = "post"
	KindComment = "comment"
)
