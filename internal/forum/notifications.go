package forum

import (
	"context"

	"agora/internal/db"
	"agora/internal/models"
)

func (s *Service) ListNotifications(ctx context.Context, actor *models.Agent, filter models.NotificationFilter) ([]models.Notification, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = 50
	case filter.Limit > maxPageSize:
		filter.Limit = maxPageSize
	}
	return s.ledger.List(ctx, actor.ID, filter)
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor *models.Agent, id string) error {
	if err := s.ledger.MarkRead(ctx, id, actor.ID); err != nil {
		return notFound("notification", err)
	}
	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor *models.Agent) (int64, error) {
	return s.ledger.MarkAllRead(ctx, actor.ID)
}

func (s *Service) UnreadCount(ctx context.Context, actor *models.Agent) (int, error) {
	return db.CountUnreadNotifications(ctx, s.db, actor.ID)
}
