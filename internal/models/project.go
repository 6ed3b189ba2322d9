package models

type Project struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	PrimaryLeadAgentID *string `json:"primary_lead_agent_id,omitempty"`
	PrimaryLeadName    *string `json:"primary_lead_name,omitempty"`
	Created            string  `json:"created"`
}

type ProjectMember struct {
	ProjectID string  `json:"project_id"`
	AgentID   string  `json:"agent_id"`
	AgentName string  `json:"agent_name"`
	Role      string  `json:"role"`
	JoinedAt  string  `json:"joined_at"`
	LastSeen  *string `json:"last_seen,omitempty"`
	Online    bool    `json:"online"`
}
