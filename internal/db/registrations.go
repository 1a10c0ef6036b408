package db

import (
	"context"
	"time"

	"campushelp/helpdesk/internal/model"
)

func (s *Store) CreatePendingRegistration(ctx context.Context, reg model.PendingRegistration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pending_registrations (id, token_hash, email, password_hash, user_type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reg.ID, reg.TokenHash, reg.Email, reg.PasswordHash, reg.UserType, reg.CreatedAt, reg.ExpiresAt)
	return err
}

func (s *Store) GetPendingRegistrationByToken(ctx context.Context, tokenHash string) (model.PendingRegistration, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, token_hash, email, password_hash, user_type, created_at, expires_at
		FROM pending_registrations
		WHERE token_hash = $1
	`, tokenHash)
	var reg model.PendingRegistration
	err := row.Scan(
		&reg.ID,
		&reg.TokenHash,
		&reg.Email,
		&reg.PasswordHash,
		&reg.UserType,
		&reg.CreatedAt,
		&reg.ExpiresAt,
	)
	return reg, err
}

func (s *Store) DeletePendingRegistration(ctx context.Context, regID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM pending_registrations WHERE id = $1
	`, regID)
	return err
}

// DeletePendingRegistrationsByEmail clears prior attempts when the same
// address registers again.
func (s *Store) DeletePendingRegistrationsByEmail(ctx context.Context, email string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM pending_registrations WHERE email = $1
	`, email)
	return err
}

func (s *Store) DeleteExpiredPendingRegistrations(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM pending_registrations WHERE expires_at < $1
	`, now)
	return tag.RowsAffected(), err
}

func (s *Store) CreatePasswordReset(ctx context.Context, reset model.PasswordReset) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO password_resets (id, token_hash, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reset.ID, reset.TokenHash, reset.Email, reset.CreatedAt, reset.ExpiresAt)
	return err
}

func (s *Store) GetPasswordResetByToken(ctx context.Context, tokenHash string) (model.PasswordReset, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, token_hash, email, created_at, expires_at
		FROM password_resets
		WHERE token_hash = $1
	`, tokenHash)
	var reset model.PasswordReset
	err := row.Scan(
		&reset.ID,
		&reset.TokenHash,
		&reset.Email,
		&reset.CreatedAt,
		&reset.ExpiresAt,
	)
	return reset, err
}

func (s *Store) DeletePasswordReset(ctx context.Context, resetID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM password_resets WHERE id = $1
	`, resetID)
	return err
}

func (s *Store) DeleteExpiredPasswordResets(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM password_resets WHERE expires_at < $1
	`, now)
	return tag.RowsAffected(), err
}
