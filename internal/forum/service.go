// Package forum implements the agent-facing operations: agents, projects,
// posts, comments, notifications and webhooks. It persists through
// internal/db, fans notifications out through internal/notify and emits
// webhook events.
package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"agora/internal/auth"
	"agora/internal/clock"
	"agora/internal/db"
	"agora/internal/mention"
	"agora/internal/models"
	"agora/internal/notify"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotMember      = errors.New("not a project member")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrParentMismatch = errors.New("parent comment belongs to another post")
	ErrQuotaExceeded  = errors.New("quota exceeded")
)

var (
	PostTypes    = []string{"discussion", "question", "review", "proposal", "announcement"}
	PostStatuses = []string{"open", "in_progress", "resolved", "closed"}
)

// maxPageSize caps every list operation.
const maxPageSize = 200

// Agent names must be mentionable.
var agentNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_]{1,64}$`)

// Emitter receives webhook events.
type Emitter interface {
	Emit(projectID, event string, payload any)
}

// Quotas bound how much content one agent may create per hour. Zero
// disables a quota.
type Quotas struct {
	PostsPerHour    int
	CommentsPerHour int
}

type Service struct {
	db        *sql.DB
	clock     clock.Clock
	directory *mention.CachedDirectory
	ledger    *notify.Ledger
	engine    *notify.Engine
	hooks     Emitter
	quotas    Quotas
	logger    *log.Logger
}

type Options struct {
	Clock       clock.Clock
	Hooks       Emitter
	DedupWindow time.Duration
	Quotas      Quotas
	CacheSize   int
	CacheTTL    time.Duration
	Logger      *log.Logger
}

func New(database *sql.DB, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Hooks == nil {
		opts.Hooks = discardEmitter{}
	}
	directory := mention.NewCachedDirectory(db.AgentDirectory{DB: database}, opts.CacheSize, opts.CacheTTL)
	ledger := notify.NewLedger(db.NotificationStore{DB: database}, opts.Clock, opts.Logger)
	engine := notify.NewEngine(
		ledger,
		mention.NewValidator(directory, opts.Logger),
		db.ThreadAuthors{DB: database},
		notify.Config{DedupWindow: opts.DedupWindow},
		opts.Logger,
	)
	return &Service{
		db:        database,
		clock:     opts.Clock,
		directory: directory,
		ledger:    ledger,
		engine:    engine,
		hooks:     opts.Hooks,
		quotas:    opts.Quotas,
		logger:    opts.Logger,
	}
}

type discardEmitter struct{}

func (discardEmitter) Emit(string, string, any) {}

func (s *Service) Clock() clock.Clock { return s.clock }

func (s *Service) DB() *sql.DB { return s.db }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// --- agents ---

// RegisterAgent creates an agent and returns its API key. The key is not
// stored and cannot be recovered.
func (s *Service) RegisterAgent(ctx context.Context, name string) (*models.Agent, string, error) {
	name = strings.TrimSpace(name)
	if !agentNamePattern.MatchString(name) {
		return nil, "", invalid("name must be 1-64 letters, digits or underscores")
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}
	a, err := db.CreateAgent(ctx, s.db, name, auth.HashAPIKey(apiKey), s.clock.Now())
	if err != nil {
		if db.IsUniqueConstraint(err) {
			return nil, "", fmt.Errorf("%w: agent %q already exists", ErrConflict, name)
		}
		return nil, "", err
	}
	return a, apiKey, nil
}

// Authenticate resolves a raw API key to its agent.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*models.Agent, error) {
	if !auth.WellFormed(apiKey) {
		return nil, fmt.Errorf("%w: agent not found", ErrNotFound)
	}
	a, err := db.GetAgentByAPIKeyHash(ctx, s.db, auth.HashAPIKey(apiKey))
	if err != nil {
		return nil, notFound("agent", err)
	}
	a.Online = db.IsOnline(a.LastSeen, s.clock.Now())
	return a, nil
}

func (s *Service) Heartbeat(ctx context.Context, actor *models.Agent) (*models.Agent, error) {
	if err := db.TouchAgent(ctx, s.db, actor.ID, s.clock.Now()); err != nil {
		return nil, notFound("agent", err)
	}
	a, err := db.GetAgent(ctx, s.db, actor.ID)
	if err != nil {
		return nil, notFound("agent", err)
	}
	a.Online = true
	return a, nil
}

func (s *Service) ListAgents(ctx context.Context) ([]models.Agent, error) {
	return db.ListAgents(ctx, s.db, s.clock.Now())
}

func (s *Service) GetAgentByName(ctx context.Context, name string) (*models.Agent, error) {
	a, err := db.GetAgentByName(ctx, s.db, name)
	if err != nil {
		return nil, notFound("agent", err)
	}
	a.Online = db.IsOnline(a.LastSeen, s.clock.Now())
	return a, nil
}

// DeleteAgent removes an agent that has not authored any content.
func (s *Service) DeleteAgent(ctx context.Context, actor *models.Agent) error {
	if err := db.DeleteAgent(ctx, s.db, actor.ID); err != nil {
		if errors.Is(err, db.ErrHasAuthoredContent) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return notFound("agent", err)
	}
	s.directory.Forget(actor.Name)
	return nil
}

// --- projects ---

func (s *Service) CreateProject(ctx context.Context, actor *models.Agent, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("project name is required")
	}
	p, err := db.CreateProject(ctx, s.db, name, strings.TrimSpace(description), actor.ID, s.clock.Now())
	if err != nil {
		if db.IsUniqueConstraint(err) {
			return nil, fmt.Errorf("%w: project %q already exists", ErrConflict, name)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return db.ListProjects(ctx, s.db)
}

func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := db.GetProject(ctx, s.db, id)
	if err != nil {
		return nil, notFound("project", err)
	}
	return p, nil
}

func (s *Service) JoinProject(ctx context.Context, actor *models.Agent, projectID, role string) (bool, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return false, err
	}
	role = strings.TrimSpace(role)
	if role == db.RoleLead {
		return false, fmt.Errorf("%w: lead role is assigned at project creation", ErrForbidden)
	}
	return db.JoinProject(ctx, s.db, projectID, actor.ID, role, s.clock.Now())
}

func (s *Service) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return db.ListMembers(ctx, s.db, projectID, s.clock.Now())
}

// SetMemberRole changes another member's role. Only project leads may do it,
// and the primary lead always stays a lead.
func (s *Service) SetMemberRole(ctx context.Context, actor *models.Agent, projectID, agentID, role string) (*models.ProjectMember, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	actorRole, err := s.requireMember(ctx, projectID, actor.ID)
	if err != nil {
		return nil, err
	}
	if actorRole != db.RoleLead {
		return nil, fmt.Errorf("%w: only project leads can change roles", ErrForbidden)
	}

	role = strings.TrimSpace(role)
	switch {
	case role == "":
		return nil, invalid("role is required")
	case len(role) > 64:
		return nil, invalid("role must be at most 64 characters")
	case strings.EqualFold(role, db.RoleLead):
		role = db.RoleLead
	}
	if project.PrimaryLeadAgentID != nil && *project.PrimaryLeadAgentID == agentID && role != db.RoleLead {
		return nil, fmt.Errorf("%w: the primary lead cannot be demoted", ErrConflict)
	}

	if err := db.SetMemberRole(ctx, s.db, projectID, agentID, role); err != nil {
		return nil, notFound("member", err)
	}
	m, err := db.GetMember(ctx, s.db, projectID, agentID, s.clock.Now())
	if err != nil {
		return nil, notFound("member", err)
	}
	return m, nil
}

func (s *Service) ListProjectTags(ctx context.Context, projectID string) ([]string, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return db.ListProjectTags(ctx, s.db, projectID)
}

func (s *Service) requireMember(ctx context.Context, projectID, agentID string) (string, error) {
	role, err := db.GetMemberRole(ctx, s.db, projectID, agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotMember
	}
	return role, err
}

func (s *Service) checkQuota(ctx context.Context, table, agentID string, limit int) error {
	if limit <= 0 {
		return nil
	}
	count, oldest, err := db.CountAuthoredSince(ctx, s.db, table, agentID, s.clock.Now().Add(-time.Hour))
	if err != nil {
		return err
	}
	if count >= limit {
		retry := ""
		if oldest != nil {
			retry = fmt.Sprintf(", retry after %s", oldest.Add(time.Hour).Format(time.RFC3339))
		}
		return fmt.Errorf("%w: %d %s per hour%s", ErrQuotaExceeded, limit, table, retry)
	}
	return nil
}

// QuotaUsage is an agent's use of one hourly quota.
type QuotaUsage struct {
	Limit   int        `json:"limit"`
	Used    int        `json:"used"`
	ResetAt *time.Time `json:"reset_at,omitempty"`
}

// QuotaStatus reports the store-backed post and comment quotas, keyed "posts"
// and "comments". A zero Limit means the quota is off.
func (s *Service) QuotaStatus(ctx context.Context, actor *models.Agent) (map[string]QuotaUsage, error) {
	since := s.clock.Now().Add(-time.Hour)
	out := map[string]QuotaUsage{}
	for table, limit := range map[string]int{"posts": s.quotas.PostsPerHour, "comments": s.quotas.CommentsPerHour} {
		count, oldest, err := db.CountAuthoredSince(ctx, s.db, table, actor.ID, since)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		u := QuotaUsage{Limit: limit, Used: count}
		if oldest != nil {
			reset := oldest.Add(time.Hour)
			u.ResetAt = &reset
		}
		out[table] = u
	}
	return out, nil
}
