package db

import (
	"context"
	"time"

	"campushelp/helpdesk/internal/model"
)

func (s *Store) CreateOTP(ctx context.Context, otp model.OTP) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO otps (id, email, code_hash, purpose, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, otp.ID, otp.Email, otp.CodeHash, otp.Purpose, otp.CreatedAt, otp.ExpiresAt, otp.Used)
	return err
}

// DeleteUnusedOTPs removes every live code for the address and purpose so a
// new issuance supersedes all prior ones.
func (s *Store) DeleteUnusedOTPs(ctx context.Context, email, purpose string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM otps WHERE email = $1 AND purpose = $2 AND NOT used
	`, email, purpose)
	return err
}

// GetUnusedOTPForUpdate fetches a live code by its hash and locks the row so
// concurrent verifications of the same code serialize.
func (s *Store) GetUnusedOTPForUpdate(ctx context.Context, email, codeHash, purpose string) (model.OTP, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, code_hash, purpose, created_at, expires_at, used
		FROM otps
		WHERE email = $1 AND code_hash = $2 AND purpose = $3 AND NOT used
		FOR UPDATE
	`, email, codeHash, purpose)
	var otp model.OTP
	err := row.Scan(
		&otp.ID,
		&otp.Email,
		&otp.CodeHash,
		&otp.Purpose,
		&otp.CreatedAt,
		&otp.ExpiresAt,
		&otp.Used,
	)
	return otp, err
}

func (s *Store) MarkOTPUsed(ctx context.Context, otpID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE otps SET used = TRUE WHERE id = $1
	`, otpID)
	return err
}

func (s *Store) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM otps WHERE expires_at < $1
	`, now)
	return tag.RowsAffected(), err
}
