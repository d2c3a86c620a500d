package api

import (
	"net/http"
	"strconv"

	"quote-funnel-go/db"
)

// handleHistory returns recent submissions, newest first.
// GET /api/v1/history?limit=50
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	subs, err := s.db.GetHistory(r.Context(), limit)
	if err != nil {
		jsonError(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []db.Submission{}
	}
	jsonOK(w, map[string]interface{}{
		"count":       len(subs),
		"submissions": subs,
	})
}
