// Package otp issues and verifies short-lived single-use codes for email
// ownership proofs.
package otp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/apperr"
	"campushelp/helpdesk/internal/crypto"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/model"
)

type Engine struct {
	store *db.Store
	ttl   time.Duration
}

func NewEngine(store *db.Store, ttl time.Duration) *Engine {
	return &Engine{store: store, ttl: ttl}
}

// Issue generates a fresh code for the address and purpose. Any prior unused
// codes for the same pair are discarded in the same transaction, so only the
// newest code can verify. The plaintext code is returned exactly once for
// delivery and never stored.
func (e *Engine) Issue(ctx context.Context, email, purpose string) (string, error) {
	code, err := crypto.NewOTPCode()
	if err != nil {
		return "", err
	}
	now := time.Now()
	record := model.OTP{
		ID:        uuid.NewString(),
		Email:     email,
		CodeHash:  crypto.HashToken(code),
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(e.ttl),
	}
	err = e.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.DeleteUnusedOTPs(ctx, email, purpose); err != nil {
			return err
		}
		return tx.CreateOTP(ctx, record)
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the code for the address and purpose. A missing or
// already-used code reports otp_not_found; an expired one reports
// otp_expired and stays unconsumed. Consumption is transactional, so two
// concurrent verifications of the same code admit exactly one caller.
func (e *Engine) Verify(ctx context.Context, email, code, purpose string) error {
	codeHash := crypto.HashToken(code)
	return e.store.WithTx(ctx, func(tx *db.Store) error {
		record, err := tx.GetUnusedOTPForUpdate(ctx, email, codeHash, purpose)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("otp_not_found")
		}
		if err != nil {
			return err
		}
		if time.Now().After(record.ExpiresAt) {
			return apperr.Conflict("otp_expired")
		}
		return tx.MarkOTPUsed(ctx, record.ID)
	})
}
