package models

type Agent struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Created  string  `json:"created"`
	LastSeen *string `json:"last_seen,omitempty"`
	Online   bool    `json:"online"`
}
