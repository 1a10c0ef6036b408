package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campushelp/helpdesk/internal/apperr"
	"campushelp/helpdesk/internal/auth"
	"campushelp/helpdesk/internal/config"
	"campushelp/helpdesk/internal/filter"
	"campushelp/helpdesk/internal/mail"
	"campushelp/helpdesk/internal/push"
)

func newUnitServer() *Server {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTokenTTL: 15 * time.Minute,
	}
	return NewServer(cfg, nil, nil, nil, nil, nil, filter.New(), mail.NewConsoleSender(), push.NopChannel{})
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer  abc ", "abc"},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Fatalf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	s := newUnitServer()
	app := httptest.NewServer(s.Router())
	defer app.Close()

	// No token at all.
	resp, err := http.Get(app.URL + "/notifications")
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Garbage token.
	req, _ := http.NewRequest(http.MethodGet, app.URL+"/notifications", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRoleMiddleware(t *testing.T) {
	s := newUnitServer()
	app := httptest.NewServer(s.Router())
	defer app.Close()

	studentToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID:   "11111111-1111-1111-1111-111111111111",
		UserType: "student",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	// A student token cannot reach staff-only endpoints.
	req, _ := http.NewRequest(http.MethodGet, app.URL+"/questions/public", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCheckProfanityEndpoint(t *testing.T) {
	s := newUnitServer()
	app := httptest.NewServer(s.Router())
	defer app.Close()

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID:   "11111111-1111-1111-1111-111111111111",
		UserType: "student",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	post := func(text string) *http.Response {
		t.Helper()
		body, _ := json.Marshal(map[string]string{"text": text})
		req, _ := http.NewRequest(http.MethodPost, app.URL+"/check-profanity", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("http error: %v", err)
		}
		return resp
	}

	check := func(text string, want bool, wantCensored string) {
		t.Helper()
		resp := post(text)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var out struct {
			ContainsProfanity bool   `json:"contains_profanity"`
			CensoredText      string `json:"censored_text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if out.ContainsProfanity != want {
			t.Fatalf("contains_profanity for %q = %v, want %v", text, out.ContainsProfanity, want)
		}
		if out.CensoredText != wantCensored {
			t.Fatalf("censored_text for %q = %q, want %q", text, out.CensoredText, wantCensored)
		}
	}

	check("when is the exam schedule published", false, "when is the exam schedule published")
	check("this course is sh1t", true, "this course is ****")

	// Empty text is a validation error.
	resp := post("   ")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// No token, no answer.
	body, _ := json.Marshal(map[string]string{"text": "anything"})
	anon, err := http.Post(app.URL+"/check-profanity", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	anon.Body.Close()
	if anon.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", anon.StatusCode)
	}
}

func TestWriteAppErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Validation("empty_question"), http.StatusBadRequest, "empty_question"},
		{apperr.Forbidden("account_blocked"), http.StatusForbidden, "account_blocked"},
		{apperr.NotFound("otp_not_found"), http.StatusNotFound, "otp_not_found"},
		{apperr.Conflict("otp_expired"), http.StatusConflict, "otp_expired"},
		{errIntentional, http.StatusInternalServerError, "server_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeAppError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("status for %v = %d, want %d", tc.err, rec.Code, tc.status)
		}
		var out map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if out["error"] != tc.code {
			t.Fatalf("code for %v = %q, want %q", tc.err, out["error"], tc.code)
		}
	}
}

var errIntentional = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }
