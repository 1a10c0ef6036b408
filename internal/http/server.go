package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campushelp/helpdesk/internal/apperr"
	"campushelp/helpdesk/internal/auth"
	"campushelp/helpdesk/internal/config"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/filter"
	"campushelp/helpdesk/internal/helpdesk"
	"campushelp/helpdesk/internal/mail"
	"campushelp/helpdesk/internal/model"
	"campushelp/helpdesk/internal/moderation"
	"campushelp/helpdesk/internal/notify"
	"campushelp/helpdesk/internal/otp"
	"campushelp/helpdesk/internal/push"
)

type Server struct {
	cfg        config.Config
	store      *db.Store
	otp        *otp.Engine
	moderation *moderation.Engine
	helpdesk   *helpdesk.Service
	dispatcher *notify.Dispatcher
	filter     *filter.Filter
	mail       mail.Sender
	push       push.Channel
}

func NewServer(
	cfg config.Config,
	store *db.Store,
	otpEngine *otp.Engine,
	moderationEngine *moderation.Engine,
	helpdeskService *helpdesk.Service,
	dispatcher *notify.Dispatcher,
	f *filter.Filter,
	sender mail.Sender,
	channel push.Channel,
) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		otp:        otpEngine,
		moderation: moderationEngine,
		helpdesk:   helpdeskService,
		dispatcher: dispatcher,
		filter:     f,
		mail:       sender,
		push:       channel,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/verify-otp", s.handleVerifyOTP)
	r.Post("/auth/resend-otp", s.handleResendOTP)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.Post("/auth/forgot-password", s.handleForgotPassword)
	r.Post("/auth/reset-password", s.handleResetPassword)

	r.With(s.authMiddleware, s.requireStudent).Post("/questions", s.handleAskQuestion)
	r.With(s.authMiddleware, s.requireStaff).Get("/questions/public", s.handleListPublicQuestions)
	r.With(s.authMiddleware, s.requireStudent).Get("/questions/mine", s.handleListMyQuestions)
	r.With(s.authMiddleware, s.requireStaff).Get("/questions/assigned", s.handleListAssignedQuestions)
	r.With(s.authMiddleware).Get("/questions/{questionId}", s.handleGetQuestion)
	r.With(s.authMiddleware, s.requireStaff).Post("/questions/{questionId}/answers", s.handleAnswerQuestion)

	r.With(s.authMiddleware, s.requireStudent).Get("/staff", s.handleListStaff)
	r.With(s.authMiddleware).Post("/check-profanity", s.handleCheckProfanity)

	r.With(s.authMiddleware).Get("/notifications", s.handleListNotifications)
	r.With(s.authMiddleware).Post("/notifications/{notificationId}/read", s.handleMarkNotificationRead)
	r.With(s.authMiddleware).Post("/push/join", s.handleJoinPushRoom)
	r.With(s.authMiddleware).Post("/push/leave", s.handleLeavePushRoom)

	r.With(s.authMiddleware, s.requireStaff).Post("/students/{studentId}/block", s.handleBlockStudent)
	r.With(s.authMiddleware, s.requireStaff).Post("/students/{studentId}/unblock", s.handleUnblockStudent)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireStaff)
		r.Get("/stats", s.handleAdminStats)
		r.Get("/users/{userId}", s.handleAdminGetUser)
		r.Delete("/users/{userId}", s.handleAdminDeleteUser)
		r.Delete("/questions/{questionId}", s.handleAdminDeleteQuestion)
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.UserType != model.UserTypeStaff {
			writeError(w, http.StatusForbidden, "staff_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStudent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.UserType != model.UserTypeStudent {
			writeError(w, http.StatusForbidden, "students_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeAppError maps the engines' error taxonomy onto status codes. Anything
// outside the taxonomy is a store fault: logged, reported as server_error.
func writeAppError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, apperr.CodeOf(err))
	case apperr.KindForbidden:
		writeError(w, http.StatusForbidden, apperr.CodeOf(err))
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, apperr.CodeOf(err))
	case apperr.KindConflict:
		writeError(w, http.StatusConflict, apperr.CodeOf(err))
	default:
		log.Printf("http: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
