package db

import (
	"context"
	"time"

	"campushelp/helpdesk/internal/model"
)

func (s *Store) CreateRefreshSession(ctx context.Context, session model.RefreshSession) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_token_sessions (id, user_id, token_hash, created_at, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, session.ID, session.UserID, session.TokenHash, session.CreatedAt, session.ExpiresAt, session.UserAgent, session.IPAddress)
	return err
}

func (s *Store) GetRefreshSessionByToken(ctx context.Context, tokenHash string) (model.RefreshSession, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address
		FROM refresh_token_sessions
		WHERE token_hash = $1
	`, tokenHash)
	var session model.RefreshSession
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.UserAgent,
		&session.IPAddress,
	)
	return session, err
}

func (s *Store) RevokeRefreshSession(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE refresh_token_sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL
	`, sessionID)
	return err
}

func (s *Store) RevokeUserRefreshSessions(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE refresh_token_sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
	return err
}

// DeleteStaleRefreshSessions drops sessions that expired or were revoked
// before the cutoff.
func (s *Store) DeleteStaleRefreshSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM refresh_token_sessions
		WHERE expires_at < $1 OR revoked_at < $1
	`, cutoff)
	return tag.RowsAffected(), err
}
