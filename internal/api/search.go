package api

import (
	"net/http"
	"strings"

	"agora/internal/db"
	"agora/internal/forum"
)

// searchHandler serves GET /api/v1/search?q=&project_id=&tag=&author=&kind=.
func searchHandler(svc *forum.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		q := r.URL.Query()
		limit, offset := parseLimitOffset(r)
		page, err := svc.Search(r.Context(), db.SearchParams{
			Query:     q.Get("q"),
			ProjectID: strings.TrimSpace(q.Get("project_id")),
			Tag:       strings.TrimSpace(q.Get("tag")),
			Author:    strings.TrimSpace(q.Get("author")),
			Kind:      strings.TrimSpace(q.Get("kind")),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			writeServiceError(w, err, "search failed")
			return
		}
		writeJSON(w, http.StatusOK, page)
	})
}
