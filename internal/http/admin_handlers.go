package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/model"
)

type statsResponse struct {
	TotalStudents     int64              `json:"total_students"`
	TotalStaff        int64              `json:"total_staff"`
	TotalQuestions    int64              `json:"total_questions"`
	TotalAnswers      int64              `json:"total_answers"`
	BlockedStudents   int64              `json:"blocked_students"`
	QuestionsToday    int64              `json:"questions_today"`
	AnswersToday      int64              `json:"answers_today"`
	AnsweredQuestions int64              `json:"answered_questions"`
	ResponseRate      float64            `json:"response_rate"`
	TopStudents       []userActivityView `json:"top_students"`
	TopStaff          []userActivityView `json:"top_staff"`
}

type userActivityView struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Count  int64  `json:"count"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.PlatformStats(r.Context(), time.Now())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponseFrom(stats))
}

func statsResponseFrom(stats model.PlatformStats) statsResponse {
	resp := statsResponse{
		TotalStudents:     stats.TotalStudents,
		TotalStaff:        stats.TotalStaff,
		TotalQuestions:    stats.TotalQuestions,
		TotalAnswers:      stats.TotalAnswers,
		BlockedStudents:   stats.BlockedStudents,
		QuestionsToday:    stats.QuestionsToday,
		AnswersToday:      stats.AnswersToday,
		AnsweredQuestions: stats.AnsweredQuestions,
		ResponseRate:      stats.ResponseRate,
		TopStudents:       make([]userActivityView, 0, len(stats.TopStudents)),
		TopStaff:          make([]userActivityView, 0, len(stats.TopStaff)),
	}
	for _, e := range stats.TopStudents {
		resp.TopStudents = append(resp.TopStudents, userActivityView(e))
	}
	for _, e := range stats.TopStaff {
		resp.TopStaff = append(resp.TopStaff, userActivityView(e))
	}
	return resp
}

type adminUserView struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	UserType   string     `json:"user_type"`
	IsVerified bool       `json:"is_verified"`
	IsBlocked  bool       `json:"is_blocked"`
	CreatedAt  time.Time  `json:"created_at"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByID(r.Context(), chi.URLParam(r, "userId"))
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminUserView{
		ID:         user.ID,
		Email:      user.Email,
		UserType:   user.UserType,
		IsVerified: user.IsVerified,
		IsBlocked:  user.IsBlocked,
		CreatedAt:  user.CreatedAt,
		LastLogin:  user.LastLogin,
	})
}

// handleAdminDeleteUser removes the account and, through the schema's
// cascades, its questions, answers, sessions and notifications. Staff may
// not delete themselves.
func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID := chi.URLParam(r, "userId")
	if userID == claims.UserID {
		writeError(w, http.StatusBadRequest, "cannot_delete_self")
		return
	}
	if _, err := s.store.GetUserByID(r.Context(), userID); errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	} else if err != nil {
		writeAppError(w, err)
		return
	}
	if err := s.store.DeleteUser(r.Context(), userID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (s *Server) handleAdminDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")
	if _, err := s.store.GetQuestionByID(r.Context(), questionID); errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "question_not_found")
		return
	} else if err != nil {
		writeAppError(w, err)
		return
	}
	if err := s.store.DeleteQuestion(r.Context(), questionID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "question deleted"})
}
