package models

type Webhook struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
	Secret    string   `json:"-"`
	Active    bool     `json:"active"`
	Created   string   `json:"created"`
}
