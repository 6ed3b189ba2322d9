package api

import (
	"net/http"

	"agora/internal/forum"
)

func forumStatsHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeServiceError(w, err, "failed to load stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})
}
