package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, user_type, is_verified, is_blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Email, user.PasswordHash, user.UserType, user.IsVerified, user.IsBlocked, user.CreatedAt)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, user_type, is_verified, is_blocked, created_at, last_login
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, user_type, is_verified, is_blocked, created_at, last_login
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row)
}

// GetUserByIDForUpdate locks the user row for the rest of the transaction.
func (s *Store) GetUserByIDForUpdate(ctx context.Context, userID string) (model.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, user_type, is_verified, is_blocked, created_at, last_login
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	return scanUser(row)
}

func (s *Store) UserEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists)
	return exists, err
}

func (s *Store) SetUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, userID, passwordHash)
	return err
}

func (s *Store) SetUserBlocked(ctx context.Context, userID string, blocked bool) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET is_blocked = $2 WHERE id = $1
	`, userID, blocked)
	return err
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET last_login = now() WHERE id = $1
	`, userID)
	return err
}

func (s *Store) ListStaff(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, email, password_hash, user_type, is_verified, is_blocked, created_at, last_login
		FROM users
		WHERE user_type = 'staff' AND is_verified
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM users WHERE id = $1
	`, userID)
	return err
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.UserType,
		&user.IsVerified,
		&user.IsBlocked,
		&user.CreatedAt,
		&user.LastLogin,
	)
	return user, err
}
