package http

import (
	"errors"
	"net/http"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/auth"
	"campushelp/helpdesk/internal/crypto"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/mail"
	"campushelp/helpdesk/internal/model"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	UserType        string `json:"user_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := netmail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_email")
		return
	}
	if req.UserType != model.UserTypeStudent && req.UserType != model.UserTypeStaff {
		writeError(w, http.StatusBadRequest, "invalid_user_type")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "password_mismatch")
		return
	}
	if err := crypto.ValidatePassword(req.Password); err != nil {
		writeAppError(w, err)
		return
	}

	exists, err := s.store.UserEmailExists(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "email_exists")
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	token, err := crypto.NewCapabilityToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now()
	reg := model.PendingRegistration{
		ID:           uuid.NewString(),
		TokenHash:    crypto.HashToken(token),
		Email:        req.Email,
		PasswordHash: passwordHash,
		UserType:     req.UserType,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.PendingTTL),
	}
	err = s.store.WithTx(r.Context(), func(tx *db.Store) error {
		if err := tx.DeletePendingRegistrationsByEmail(r.Context(), req.Email); err != nil {
			return err
		}
		return tx.CreatePendingRegistration(r.Context(), reg)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	code, err := s.otp.Issue(r.Context(), req.Email, model.OTPPurposeRegistration)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	// Sent synchronously so the caller learns right away when the code
	// cannot go out.
	if err := s.mail.Send(r.Context(), req.Email, mail.SubjectVerifyEmail, mail.VerificationBody(code)); err != nil {
		writeError(w, http.StatusInternalServerError, "email_send_failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"registration_token": token,
		"message":            "verification code sent",
	})
}

type verifyOTPRequest struct {
	RegistrationToken string `json:"registration_token"`
	Code              string `json:"code"`
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.RegistrationToken == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	reg, err := s.store.GetPendingRegistrationByToken(r.Context(), crypto.HashToken(req.RegistrationToken))
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "registration_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if time.Now().After(reg.ExpiresAt) {
		writeError(w, http.StatusConflict, "registration_expired")
		return
	}

	if err := s.otp.Verify(r.Context(), reg.Email, req.Code, model.OTPPurposeRegistration); err != nil {
		writeAppError(w, err)
		return
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		UserType:     reg.UserType,
		IsVerified:   true,
		CreatedAt:    time.Now(),
	}
	err = s.store.WithTx(r.Context(), func(tx *db.Store) error {
		if err := tx.DeletePendingRegistration(r.Context(), reg.ID); err != nil {
			return err
		}
		return tx.CreateUser(r.Context(), user)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, userSummaryFrom(user))
}

type resendOTPRequest struct {
	RegistrationToken string `json:"registration_token"`
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := decodeJSON(r, &req); err != nil || req.RegistrationToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	reg, err := s.store.GetPendingRegistrationByToken(r.Context(), crypto.HashToken(req.RegistrationToken))
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "registration_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if time.Now().After(reg.ExpiresAt) {
		writeError(w, http.StatusConflict, "registration_expired")
		return
	}

	code, err := s.otp.Issue(r.Context(), reg.Email, model.OTPPurposeRegistration)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := s.mail.Send(r.Context(), reg.Email, mail.SubjectVerifyEmail, mail.VerificationBody(code)); err != nil {
		writeError(w, http.StatusInternalServerError, "email_send_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         userSummary `json:"user"`
}

type userSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	UserType  string `json:"user_type"`
	IsBlocked bool   `json:"is_blocked"`
}

func userSummaryFrom(user model.User) userSummary {
	return userSummary{
		ID:        user.ID,
		Email:     user.Email,
		UserType:  user.UserType,
		IsBlocked: user.IsBlocked,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if !user.IsVerified {
		writeError(w, http.StatusForbidden, "email_not_verified")
		return
	}
	if user.IsBlocked {
		writeError(w, http.StatusForbidden, "account_blocked")
		return
	}

	if err := s.store.TouchLastLogin(r.Context(), user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	accessToken, refreshToken, err := s.issueTokens(r, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userSummaryFrom(user),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}

	session, err := s.store.GetRefreshSessionByToken(r.Context(), crypto.HashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now().UTC()) {
		writeError(w, http.StatusUnauthorized, "refresh_token_expired")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "user_not_found")
		return
	}
	if user.IsBlocked {
		writeError(w, http.StatusForbidden, "account_blocked")
		return
	}

	if err := s.store.RevokeRefreshSession(r.Context(), session.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	accessToken, refreshToken, err := s.issueTokens(r, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userSummaryFrom(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if err := s.store.RevokeUserRefreshSessions(r.Context(), claims.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// handleForgotPassword always answers with a reset token so the response
// does not reveal whether the address has an account. The OTP email only
// goes out when one exists.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := netmail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_email")
		return
	}

	token, err := crypto.NewCapabilityToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	now := time.Now()
	reset := model.PasswordReset{
		ID:        uuid.NewString(),
		TokenHash: crypto.HashToken(token),
		Email:     req.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}
	if err := s.store.CreatePasswordReset(r.Context(), reset); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	exists, err := s.store.UserEmailExists(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if exists {
		code, err := s.otp.Issue(r.Context(), req.Email, model.OTPPurposePasswordReset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if err := s.mail.Send(r.Context(), req.Email, mail.SubjectPasswordReset, mail.PasswordResetBody(code)); err != nil {
			writeError(w, http.StatusInternalServerError, "email_send_failed")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"reset_token": token,
		"message":     "if the address is registered, a reset code has been sent",
	})
}

type resetPasswordRequest struct {
	ResetToken      string `json:"reset_token"`
	Code            string `json:"code"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ResetToken == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "password_mismatch")
		return
	}
	if err := crypto.ValidatePassword(req.NewPassword); err != nil {
		writeAppError(w, err)
		return
	}

	reset, err := s.store.GetPasswordResetByToken(r.Context(), crypto.HashToken(req.ResetToken))
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "reset_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if time.Now().After(reset.ExpiresAt) {
		writeError(w, http.StatusConflict, "reset_expired")
		return
	}

	if err := s.otp.Verify(r.Context(), reset.Email, req.Code, model.OTPPurposePasswordReset); err != nil {
		writeAppError(w, err)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), reset.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	passwordHash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	err = s.store.WithTx(r.Context(), func(tx *db.Store) error {
		if err := tx.SetUserPassword(r.Context(), user.ID, passwordHash); err != nil {
			return err
		}
		if err := tx.DeletePasswordReset(r.Context(), reset.ID); err != nil {
			return err
		}
		// Old sessions die with the old password.
		return tx.RevokeUserRefreshSessions(r.Context(), user.ID)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) issueTokens(r *http.Request, user model.User) (string, string, error) {
	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID:   user.ID,
		UserType: user.UserType,
	})
	if err != nil {
		return "", "", err
	}

	refreshToken, err := crypto.NewCapabilityToken()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	session := model.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: crypto.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if userAgent := r.UserAgent(); userAgent != "" {
		session.UserAgent = &userAgent
	}
	if ip := clientIP(r); ip != "" {
		session.IPAddress = &ip
	}
	if err := s.store.CreateRefreshSession(r.Context(), session); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
