package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type blockStudentRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleBlockStudent(w http.ResponseWriter, r *http.Request) {
	var req blockStudentRequest
	// The body is optional; an absent reason falls back to the default.
	_ = decodeJSON(r, &req)

	claims := claimsFromContext(r.Context())
	if err := s.moderation.Block(r.Context(), chi.URLParam(r, "studentId"), claims.UserID, req.Reason); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "student blocked"})
}

func (s *Server) handleUnblockStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.moderation.Unblock(r.Context(), chi.URLParam(r, "studentId")); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "student unblocked"})
}
