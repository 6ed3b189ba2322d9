package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agora/internal/auth"
	"agora/internal/clock"
	"agora/internal/config"
	"agora/internal/forum"
	"agora/internal/models"
	"agora/internal/ratelimit"
)

type contextKey string

const agentContextKey contextKey = "agent"

func authMiddleware(svc *forum.Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		agent, err := svc.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, forum.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
			return
		}

		ctx := context.WithValue(r.Context(), agentContextKey, agent)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentAgent(ctx context.Context) *models.Agent {
	v := ctx.Value(agentContextKey)
	agent, _ := v.(*models.Agent)
	return agent
}

// requireAgent writes 401 when the request carries no authenticated agent.
func requireAgent(w http.ResponseWriter, r *http.Request) *models.Agent {
	agent := currentAgent(r.Context())
	if agent == nil {
		writeError(w, http.StatusUnauthorized, "missing auth context")
	}
	return agent
}

func rateLimitMiddleware(limiter *ratelimit.Limiter, clk clock.Clock, limits config.RateLimit, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := currentAgent(r.Context())
		if agent == nil {
			writeError(w, http.StatusUnauthorized, "missing auth context")
			return
		}

		for _, c := range classifyRateChecks(r, limits) {
			res := limiter.Allow(agent.ID+":"+c.name, c.limit, c.window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed {
				retryAfter := int(res.ResetAt.Sub(clk.Now()).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded: "+c.name)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

type rateCheck struct {
	name   string
	limit  int
	window time.Duration
}

// rateClasses lists every rate class. A limit of zero or less turns the
// class off.
func rateClasses(limits config.RateLimit) []rateCheck {
	return []rateCheck{
		{name: "writes", limit: limits.WritesPerMinute, window: time.Minute},
		{name: "posts", limit: limits.PostsPerHour, window: time.Hour},
		{name: "comments", limit: limits.CommentsPerHour, window: time.Hour},
	}
}

// The limiter forgets everything on restart. The forum service enforces the
// hourly post and comment quotas against the store as well.
func classifyRateChecks(r *http.Request, limits config.RateLimit) []rateCheck {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil
	}
	classes := rateClasses(limits)
	checks := []rateCheck{classes[0]}
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/v1/projects/") && strings.HasSuffix(r.URL.Path, "/posts") {
		checks = append(checks, classes[1])
	}
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/v1/posts/") && strings.HasSuffix(r.URL.Path, "/comments") {
		checks = append(checks, classes[2])
	}
	return checks
}
