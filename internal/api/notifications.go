package api

import (
	"net/http"

	"agora/internal/forum"
	"agora/internal/models"
)

func notificationsCollectionHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		limit, offset := parseLimitOffset(r)
		unreadOnly, err := parseBool(r.URL.Query().Get("unread"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid unread value")
			return
		}
		items, err := svc.ListNotifications(r.Context(), agent, models.NotificationFilter{
			UnreadOnly: unreadOnly,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			writeServiceError(w, err, "failed to list notifications")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": items,
			"limit":         limit,
			"offset":        offset,
		})
	})
}

// notificationsItemHandler serves /api/v1/notifications/read-all and
// /api/v1/notifications/{id}/read.
func notificationsItemHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/notifications/")
		switch {
		case len(parts) == 1 && parts[0] == "read-all":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			count, err := svc.MarkAllNotificationsRead(r.Context(), agent)
			if err != nil {
				writeServiceError(w, err, "failed to mark notifications as read")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "marked": count})
		case len(parts) == 2 && parts[1] == "read":
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				methodNotAllowed(w)
				return
			}
			if err := svc.MarkNotificationRead(r.Context(), agent, parts[0]); err != nil {
				writeServiceError(w, err, "failed to mark notification as read")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}
