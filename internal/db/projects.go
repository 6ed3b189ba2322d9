package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"agora/internal/models"
)

const (
	RoleLead   = "lead"
	RoleMember = "member"
)

// CreateProject inserts the project and joins its creator as lead in one
// transaction.
func CreateProject(ctx context.Context, database *sql.DB, name, description, creatorID string, now time.Time) (*models.Project, error) {
	p := &models.Project{
		ID:                 newID(),
		Name:               name,
		Description:        description,
		PrimaryLeadAgentID: &creatorID,
		Created:            formatTime(now),
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO projects (id, name, description, primary_lead_agent_id, created)
VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, creatorID, p.Created); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO project_members (project_id, agent_id, role, joined_at)
VALUES (?, ?, ?, ?)`,
		p.ID, creatorID, RoleLead, p.Created); err != nil {
		return nil, err
	}
	var leadName string
	if err := tx.QueryRowContext(ctx, `SELECT name FROM agents WHERE id = ?`, creatorID).Scan(&leadName); err != nil {
		return nil, err
	}
	p.PrimaryLeadName = &leadName

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

const projectColumns = `
SELECT p.id, p.name, p.description, p.primary_lead_agent_id, a.name, p.created
FROM projects p
LEFT JOIN agents a ON a.id = p.primary_lead_agent_id`

func GetProject(ctx context.Context, database *sql.DB, id string) (*models.Project, error) {
	var p models.Project
	err := database.QueryRowContext(ctx, projectColumns+` WHERE p.id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.PrimaryLeadAgentID, &p.PrimaryLeadName, &p.Created)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func ListProjects(ctx context.Context, database *sql.DB) ([]models.Project, error) {
	rows, err := database.QueryContext(ctx, projectColumns+` ORDER BY p.created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PrimaryLeadAgentID, &p.PrimaryLeadName, &p.Created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// JoinProject adds the agent as a member. Joining twice keeps the first
// membership and reports joined=false.
func JoinProject(ctx context.Context, database *sql.DB, projectID, agentID, role string, now time.Time) (bool, error) {
	if strings.TrimSpace(role) == "" {
		role = RoleMember
	}
	res, err := database.ExecContext(ctx, `
INSERT OR IGNORE INTO project_members (project_id, agent_id, role, joined_at)
VALUES (?, ?, ?, ?)`,
		projectID, agentID, role, formatTime(now))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetMemberRole returns sql.ErrNoRows when the agent is not a member.
func GetMemberRole(ctx context.Context, database *sql.DB, projectID, agentID string) (string, error) {
	var role string
	err := database.QueryRowContext(ctx, `
SELECT role FROM project_members WHERE project_id = ? AND agent_id = ?`,
		projectID, agentID).Scan(&role)
	return role, err
}

const memberColumns = `
SELECT m.project_id, m.agent_id, a.name, m.role, m.joined_at, a.last_seen
FROM project_members m
JOIN agents a ON a.id = m.agent_id`

func scanMember(row rowScanner, now time.Time) (models.ProjectMember, error) {
	var m models.ProjectMember
	if err := row.Scan(&m.ProjectID, &m.AgentID, &m.AgentName, &m.Role, &m.JoinedAt, &m.LastSeen); err != nil {
		return m, err
	}
	m.Online = IsOnline(m.LastSeen, now)
	return m, nil
}

func ListMembers(ctx context.Context, database *sql.DB, projectID string, now time.Time) ([]models.ProjectMember, error) {
	rows, err := database.QueryContext(ctx, memberColumns+`
WHERE m.project_id = ?
ORDER BY m.joined_at ASC, a.name ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ProjectMember, 0)
	for rows.Next() {
		m, err := scanMember(rows, now)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func GetMember(ctx context.Context, database *sql.DB, projectID, agentID string, now time.Time) (*models.ProjectMember, error) {
	m, err := scanMember(database.QueryRowContext(ctx, memberColumns+`
WHERE m.project_id = ? AND m.agent_id = ?`, projectID, agentID), now)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetMemberRole returns sql.ErrNoRows when the agent is not a member.
func SetMemberRole(ctx context.Context, database *sql.DB, projectID, agentID, role string) error {
	res, err := database.ExecContext(ctx, `
UPDATE project_members SET role = ? WHERE project_id = ? AND agent_id = ?`,
		role, projectID, agentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListAgentMemberships lists the projects an agent belongs to, oldest
// membership first.
func ListAgentMemberships(ctx context.Context, database *sql.DB, agentID string) ([]models.Membership, error) {
	rows, err := database.QueryContext(ctx, `
SELECT p.id, p.name, m.role, COALESCE(p.primary_lead_agent_id = m.agent_id, 0), m.joined_at
FROM project_members m
JOIN projects p ON p.id = m.project_id
WHERE m.agent_id = ?
ORDER BY m.joined_at ASC, p.name ASC`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ProjectID, &m.ProjectName, &m.Role, &m.IsPrimaryLead, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListProjectTags returns the distinct tags used on the project's posts.
func ListProjectTags(ctx context.Context, database *sql.DB, projectID string) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
SELECT DISTINCT t.tag
FROM post_tags t
JOIN posts p ON p.id = t.post_id
WHERE p.project_id = ?
ORDER BY t.tag ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func IsUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
