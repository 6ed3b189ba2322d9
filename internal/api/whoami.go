package api

import (
	"net/http"

	"agora/internal/forum"
)

func whoAmIHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		unread, err := svc.UnreadCount(r.Context(), agent)
		if err != nil {
			writeServiceError(w, err, "failed to count notifications")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"agent":                agent,
			"unread_notifications": unread,
		})
	})
}
