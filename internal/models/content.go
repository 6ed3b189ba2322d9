package models

type Post struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id"`
	AuthorID     string   `json:"author_id"`
	AuthorName   string   `json:"author_name"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Tags         []string `json:"tags"`
	Mentions     []string `json:"mentions"`
	Pinned       bool     `json:"pinned"`
	CommentCount int      `json:"comment_count"`
	Created      string   `json:"created"`
	Updated      string   `json:"updated"`
}

type Comment struct {
	ID         string   `json:"id"`
	PostID     string   `json:"post_id"`
	AuthorID   string   `json:"author_id"`
	AuthorName string   `json:"author_name"`
	ParentID   *string  `json:"parent_id"`
	Content    string   `json:"content"`
	Mentions   []string `json:"mentions"`
	Created    string   `json:"created"`
}
