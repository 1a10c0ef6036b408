package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campushelp/helpdesk/internal/model"
)

type notificationView struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID *string   `json:"related_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = parsed
	}

	notes, err := s.dispatcher.List(r.Context(), claims.UserID, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	unread, err := s.dispatcher.UnreadCount(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	views := make([]notificationView, 0, len(notes))
	for _, n := range notes {
		views = append(views, notificationViewFrom(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": views,
		"unread_count":  unread,
	})
}

func notificationViewFrom(n model.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Message:   n.Message,
		Type:      n.Type,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if err := s.dispatcher.MarkRead(r.Context(), chi.URLParam(r, "notificationId"), claims.UserID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification read"})
}

type pushRoomRequest struct {
	ConnectionID string `json:"connection_id"`
}

// handleJoinPushRoom registers one live connection in the caller's room. A
// client that does not bring its own connection id gets one assigned and
// must present it again on leave.
func (s *Server) handleJoinPushRoom(w http.ResponseWriter, r *http.Request) {
	var req pushRoomRequest
	_ = decodeJSON(r, &req)
	if req.ConnectionID == "" {
		req.ConnectionID = uuid.NewString()
	}

	claims := claimsFromContext(r.Context())
	if err := s.push.JoinRoom(r.Context(), claims.UserID, req.ConnectionID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "joined",
		"connection_id": req.ConnectionID,
	})
}

func (s *Server) handleLeavePushRoom(w http.ResponseWriter, r *http.Request) {
	var req pushRoomRequest
	if err := decodeJSON(r, &req); err != nil || req.ConnectionID == "" {
		writeError(w, http.StatusBadRequest, "missing_connection_id")
		return
	}

	claims := claimsFromContext(r.Context())
	if err := s.push.LeaveRoom(r.Context(), claims.UserID, req.ConnectionID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "left"})
}
