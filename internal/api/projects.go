package api

import (
	"net/http"
	"strings"

	"agora/internal/forum"
	"agora/internal/models"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type joinProjectRequest struct {
	Role string `json:"role"`
}

type setMemberRoleRequest struct {
	Role string `json:"role"`
}

func projectsCollectionHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		switch r.Method {
		case http.MethodGet:
			projects, err := svc.ListProjects(r.Context())
			if err != nil {
				writeServiceError(w, err, "failed to list projects")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
		case http.MethodPost:
			var req createProjectRequest
			if !decodeBody(w, r, &req) {
				return
			}
			project, err := svc.CreateProject(r.Context(), agent, req.Name, req.Description)
			if err != nil {
				writeServiceError(w, err, "failed to create project")
				return
			}
			writeJSON(w, http.StatusCreated, project)
		default:
			methodNotAllowed(w)
		}
	})
}

// projectScopedHandler serves /api/v1/projects/{id}[/join|/members[/{agent}]|/tags|/posts|/webhooks[/{webhook}]].
func projectScopedHandler(svc *forum.Service) http.Handler {
	posts := projectPostsHandler(svc)
	webhooks := projectWebhooksHandler(svc)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent := requireAgent(w, r)
		if agent == nil {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/projects/")
		if len(parts) == 0 {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		projectID := parts[0]
		sub := ""
		if len(parts) > 1 {
			sub = parts[1]
		}

		switch sub {
		case "":
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			project, err := svc.GetProject(r.Context(), projectID)
			if err != nil {
				writeServiceError(w, err, "failed to load project")
				return
			}
			writeJSON(w, http.StatusOK, project)
		case "join":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			var req joinProjectRequest
			if r.ContentLength != 0 && !decodeBody(w, r, &req) {
				return
			}
			joined, err := svc.JoinProject(r.Context(), agent, projectID, req.Role)
			if err != nil {
				writeServiceError(w, err, "failed to join project")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"project_id": projectID, "joined": joined})
		case "members":
			if len(parts) == 3 {
				memberRoleHandler(svc, agent, projectID, parts[2]).ServeHTTP(w, r)
				return
			}
			if len(parts) > 3 {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			members, err := svc.ListMembers(r.Context(), projectID)
			if err != nil {
				writeServiceError(w, err, "failed to list members")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"members": members})
		case "tags":
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			tags, err := svc.ListProjectTags(r.Context(), projectID)
			if err != nil {
				writeServiceError(w, err, "failed to list tags")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
		case "posts":
			posts.ServeHTTP(w, r.WithContext(withPathIDs(r.Context(), projectID, "")))
		case "webhooks":
			webhookID := ""
			if len(parts) > 2 {
				webhookID = strings.Join(parts[2:], "/")
			}
			webhooks.ServeHTTP(w, r.WithContext(withPathIDs(r.Context(), projectID, webhookID)))
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func memberRoleHandler(svc *forum.Service, agent *models.Agent, projectID, memberID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		var req setMemberRoleRequest
		if !decodeBody(w, r, &req) {
			return
		}
		member, err := svc.SetMemberRole(r.Context(), agent, projectID, memberID, req.Role)
		if err != nil {
			writeServiceError(w, err, "failed to update member role")
			return
		}
		writeJSON(w, http.StatusOK, member)
	}
}
