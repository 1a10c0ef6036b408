package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"campushelp/helpdesk/internal/model"
)

type askQuestionRequest struct {
	Content  string  `json:"content"`
	IsPublic *bool   `json:"is_public"`
	StaffID  *string `json:"staff_id"`
}

type questionView struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IsPublic   bool      `json:"is_public"`
	StaffID    *string   `json:"staff_id,omitempty"`
	IsAnswered bool      `json:"is_answered"`
	CreatedAt  time.Time `json:"created_at"`
}

type answerView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// questionViewFrom deliberately omits the student's identity: questions are
// anonymous to everyone, including the staff member answering.
func questionViewFrom(q model.Question) questionView {
	return questionView{
		ID:         q.ID,
		Content:    q.Content,
		IsPublic:   q.IsPublic,
		StaffID:    q.StaffID,
		IsAnswered: q.IsAnswered,
		CreatedAt:  q.CreatedAt,
	}
}

func questionViewsFrom(questions []model.Question) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionViewFrom(q))
	}
	return views
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	var req askQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	claims := claimsFromContext(r.Context())
	q, err := s.helpdesk.SubmitQuestion(r.Context(), claims.UserID, req.Content, isPublic, req.StaffID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, questionViewFrom(q))
}

func (s *Server) handleListPublicQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.helpdesk.ListPublicQuestions(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionViewsFrom(questions))
}

func (s *Server) handleListMyQuestions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	questions, err := s.helpdesk.ListQuestionsByStudent(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionViewsFrom(questions))
}

func (s *Server) handleListAssignedQuestions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	questions, err := s.helpdesk.ListPrivateQuestionsForStaff(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionViewsFrom(questions))
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	questionID := chi.URLParam(r, "questionId")

	q, answers, err := s.helpdesk.GetQuestion(r.Context(), questionID, claims.UserID, claims.UserType)
	if err != nil {
		writeAppError(w, err)
		return
	}

	views := make([]answerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, answerView{ID: a.ID, Content: a.Content, CreatedAt: a.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question": questionViewFrom(q),
		"answers":  views,
	})
}

type answerQuestionRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	claims := claimsFromContext(r.Context())
	a, err := s.helpdesk.SubmitAnswer(r.Context(), chi.URLParam(r, "questionId"), claims.UserID, req.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answerView{ID: a.ID, Content: a.Content, CreatedAt: a.CreatedAt})
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := s.helpdesk.ListStaff(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	views := make([]userSummary, 0, len(staff))
	for _, member := range staff {
		views = append(views, userSummaryFrom(member))
	}
	writeJSON(w, http.StatusOK, views)
}

type checkProfanityRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCheckProfanity(w http.ResponseWriter, r *http.Request) {
	var req checkProfanityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "empty_text")
		return
	}
	contains := s.filter.ContainsProhibited(req.Text)
	message := "text is clean"
	if contains {
		message = "text contains inappropriate language"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contains_profanity": contains,
		"message":            message,
		"censored_text":      s.filter.Censor(req.Text),
	})
}
