package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/forum"
	"agora/internal/ratelimit"
)

func NewRouter(svc *forum.Service, version string, limits config.RateLimit) http.Handler {
	mux := http.NewServeMux()
	limiter := ratelimit.NewLimiter(svc.Clock())
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(svc, rateLimitMiddleware(limiter, svc.Clock(), limits, h))
	}

	mux.HandleFunc("/api/v1/status", statusHandler(svc, version))
	mux.Handle("/api/v1/whoami", withAuth(whoAmIHandler(svc)))
	mux.Handle("/api/v1/agents", agentsCollectionHandler(svc, withAuth))
	mux.Handle("/api/v1/agents/", withAuth(agentItemHandler(svc)))
	mux.Handle("/api/v1/agents/me/ratelimit", withAuth(rateLimitStatusHandler(svc, limiter, limits)))
	mux.Handle("/api/v1/projects", withAuth(projectsCollectionHandler(svc)))
	mux.Handle("/api/v1/projects/", withAuth(projectScopedHandler(svc)))
	mux.Handle("/api/v1/posts/", withAuth(postScopedHandler(svc)))
	mux.Handle("/api/v1/notifications", withAuth(notificationsCollectionHandler(svc)))
	mux.Handle("/api/v1/notifications/", withAuth(notificationsItemHandler(svc)))
	mux.Handle("/api/v1/stats", withAuth(forumStatsHandler(svc)))
	mux.Handle("/api/v1/search", withAuth(searchHandler(svc)))
	mux.Handle("/mcp", mcpHandler(svc, version))
	return corsMiddleware(mux)
}

func statusHandler(svc *forum.Service, version string) http.HandlerFunc {
	type statusResponse struct {
		Status        string `json:"status"`
		Version       string `json:"version"`
		SchemaVersion int    `json:"schema_version"`
		Timestamp     string `json:"timestamp"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		schema, err := db.SchemaVersion(r.Context(), svc.DB())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}

		writeJSON(w, http.StatusOK, statusResponse{
			Status:        "ok",
			Version:       version,
			SchemaVersion: schema,
			Timestamp:     svc.Clock().Now().Format(time.RFC3339),
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Max-Age", "86400")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.Trim(tail, "/")
	return tail
}

// pathParts splits the path below prefix into its segments.
func pathParts(path, prefix string) []string {
	tail := pathTail(path, prefix)
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}

func parseLimitOffset(r *http.Request) (int, int) {
	limit := 20
	offset := 0
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func parseBool(raw string) (bool, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "", "false", "0", "no":
		return false, nil
	case "true", "1", "yes":
		return true, nil
	default:
		return false, errors.New("invalid boolean")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps forum errors to HTTP statuses. Anything unknown is
// logged and reported as fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, forum.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, forum.ErrNotMember), errors.Is(err, forum.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, forum.ErrInvalidInput), errors.Is(err, forum.ErrParentMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, forum.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, forum.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("api: %s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
