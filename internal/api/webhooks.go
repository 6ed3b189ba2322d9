package api

import (
	"net/http"
	"strings"

	"agora/internal/forum"
)

type createWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

type updateWebhookRequest struct {
	Active *bool `json:"active"`
}

func projectWebhooksHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		ids := pathIDsFrom(r.Context())
		projectID, webhookID := ids.parent, ids.child

		if webhookID == "" {
			switch r.Method {
			case http.MethodGet:
				items, err := svc.ListWebhooks(r.Context(), agent, projectID)
				if err != nil {
					writeServiceError(w, err, "failed to list webhooks")
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"webhooks": items})
			case http.MethodPost:
				var req createWebhookRequest
				if !decodeBody(w, r, &req) {
					return
				}
				hook, err := svc.CreateWebhook(r.Context(), agent, projectID, strings.TrimSpace(req.URL), req.Events, req.Secret)
				if err != nil {
					writeServiceError(w, err, "failed to create webhook")
					return
				}
				writeJSON(w, http.StatusCreated, hook)
			default:
				methodNotAllowed(w)
			}
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req updateWebhookRequest
			if !decodeBody(w, r, &req) {
				return
			}
			if req.Active == nil {
				writeError(w, http.StatusBadRequest, "active is required")
				return
			}
			if err := svc.SetWebhookActive(r.Context(), agent, projectID, webhookID, *req.Active); err != nil {
				writeServiceError(w, err, "failed to update webhook")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": webhookID, "active": *req.Active})
		case http.MethodDelete:
			if err := svc.DeleteWebhook(r.Context(), agent, projectID, webhookID); err != nil {
				writeServiceError(w, err, "failed to delete webhook")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	})
}
