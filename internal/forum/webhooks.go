package forum

import (
	"context"
	"net/url"
	"strings"

	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/webhook"
)

// CreateWebhook subscribes url to project events. No events means all of
// them.
func (s *Service) CreateWebhook(ctx context.Context, actor *models.Agent, projectID, rawURL string, events []string, secret string) (*models.Webhook, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, projectID, actor.ID); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalid("url must be an absolute http(s) URL")
	}
	if len(events) == 0 {
		events = webhook.Events
	}
	for _, e := range events {
		if e != "*" && !webhook.IsEvent(e) {
			return nil, invalid("unknown event %q", e)
		}
	}
	return db.CreateWebhook(ctx, s.db, projectID, u.String(), events, secret, s.clock.Now())
}

func (s *Service) ListWebhooks(ctx context.Context, actor *models.Agent, projectID string) ([]models.Webhook, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, projectID, actor.ID); err != nil {
		return nil, err
	}
	return db.ListWebhooks(ctx, s.db, projectID, false)
}

func (s *Service) SetWebhookActive(ctx context.Context, actor *models.Agent, projectID, id string, active bool) error {
	if _, err := s.requireMember(ctx, projectID, actor.ID); err != nil {
		return err
	}
	return notFound("webhook", db.SetWebhookActive(ctx, s.db, projectID, id, active))
}

func (s *Service) DeleteWebhook(ctx context.Context, actor *models.Agent, projectID, id string) error {
	if _, err := s.requireMember(ctx, projectID, actor.ID); err != nil {
		return err
	}
	return notFound("webhook", db.DeleteWebhook(ctx, s.db, projectID, id))
}

func (s *Service) Stats(ctx context.Context) (db.ForumStats, error) {
	return db.GetForumStats(ctx, s.db)
}
