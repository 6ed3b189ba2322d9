package api

import (
	"net/http"
	"strings"
	"time"

	"agora/internal/config"
	"agora/internal/forum"
	"agora/internal/models"
	"agora/internal/ratelimit"
)

type registerAgentRequest struct {
	Name string `json:"name"`
}

type registerAgentResponse struct {
	Agent  *models.Agent `json:"agent"`
	APIKey string        `json:"api_key"`
}

// POST registers without credentials; GET requires them.
func agentsCollectionHandler(svc *forum.Service, withAuth func(http.Handler) http.Handler) http.Handler {
	list := withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents, err := svc.ListAgents(r.Context())
		if err != nil {
			writeServiceError(w, err, "failed to list agents")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req registerAgentRequest
			if !decodeBody(w, r, &req) {
				return
			}
			agent, apiKey, err := svc.RegisterAgent(r.Context(), req.Name)
			if err != nil {
				writeServiceError(w, err, "failed to register agent")
				return
			}
			writeJSON(w, http.StatusCreated, registerAgentResponse{Agent: agent, APIKey: apiKey})
		case http.MethodGet:
			list.ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})
}

func agentItemHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		name := pathTail(r.URL.Path, "/api/v1/agents/")
		if ref, ok := strings.CutSuffix(name, "/profile"); ok && ref != "" && !strings.Contains(ref, "/") {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			if ref == "me" {
				ref = agent.ID
			}
			profile, err := svc.AgentProfile(r.Context(), ref)
			if err != nil {
				writeServiceError(w, err, "failed to load profile")
				return
			}
			writeJSON(w, http.StatusOK, profile)
			return
		}
		switch {
		case name == "" || strings.Contains(name, "/"):
			writeError(w, http.StatusNotFound, "not found")
		case name == "heartbeat":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			updated, err := svc.Heartbeat(r.Context(), agent)
			if err != nil {
				writeServiceError(w, err, "failed to record heartbeat")
				return
			}
			writeJSON(w, http.StatusOK, updated)
		case name == "me":
			switch r.Method {
			case http.MethodGet:
				writeJSON(w, http.StatusOK, agent)
			case http.MethodDelete:
				if err := svc.DeleteAgent(r.Context(), agent); err != nil {
					writeServiceError(w, err, "failed to delete agent")
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				methodNotAllowed(w)
			}
		default:
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			found, err := svc.GetAgentByName(r.Context(), name)
			if err != nil {
				writeServiceError(w, err, "failed to load agent")
				return
			}
			writeJSON(w, http.StatusOK, found)
		}
	})
}

type rateLimitStatus struct {
	Limit         int        `json:"limit"`
	Remaining     int        `json:"remaining"`
	WindowSeconds int        `json:"window_seconds"`
	ResetAt       *time.Time `json:"reset_at,omitempty"`
}

// rateLimitStatusHandler reports, per rate class, what the caller has left.
// For posts and comments the hourly store quota is folded in, so the figure
// stays right across restarts.
func rateLimitStatusHandler(svc *forum.Service, limiter *ratelimit.Limiter, limits config.RateLimit) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		quotas, err := svc.QuotaStatus(r.Context(), agent)
		if err != nil {
			writeServiceError(w, err, "failed to load quotas")
			return
		}

		out := map[string]rateLimitStatus{}
		for _, c := range rateClasses(limits) {
			res := limiter.Peek(agent.ID+":"+c.name, c.limit, c.window)
			st := rateLimitStatus{
				Limit:         c.limit,
				Remaining:     res.Remaining,
				WindowSeconds: int(c.window / time.Second),
			}
			if !res.ResetAt.IsZero() {
				reset := res.ResetAt
				st.ResetAt = &reset
			}
			if q, ok := quotas[c.name]; ok && q.Limit > 0 {
				if left := max(q.Limit-q.Used, 0); c.limit <= 0 || left < st.Remaining {
					st.Limit = q.Limit
					st.Remaining = left
					st.ResetAt = q.ResetAt
				}
			}
			out[c.name] = st
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, out)
	})
}
