// Package moderation lets staff suspend and reinstate student accounts.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/apperr"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/model"
	"campushelp/helpdesk/internal/notify"
)

const defaultReason = "Inappropriate behavior"

type Engine struct {
	store      *db.Store
	dispatcher *notify.Dispatcher
}

func NewEngine(store *db.Store, dispatcher *notify.Dispatcher) *Engine {
	return &Engine{store: store, dispatcher: dispatcher}
}

// Block suspends the student. The block record, the user flag and the
// notification row commit in one transaction; the student row is locked
// first so two staff blocking the same student at once resolve to exactly
// one record and one already_blocked conflict.
func (e *Engine) Block(ctx context.Context, studentID, staffID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultReason
	}

	var note model.Notification
	err := e.store.WithTx(ctx, func(tx *db.Store) error {
		student, err := tx.GetUserByIDForUpdate(ctx, studentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("user_not_found")
		}
		if err != nil {
			return err
		}
		if !student.IsStudent() {
			return apperr.Validation("not_a_student")
		}
		blocked, err := tx.HasBlockRecord(ctx, studentID)
		if err != nil {
			return err
		}
		if blocked {
			return apperr.Conflict("already_blocked")
		}
		rec := model.BlockRecord{
			ID:        uuid.NewString(),
			StudentID: studentID,
			StaffID:   staffID,
			Reason:    reason,
			CreatedAt: time.Now(),
		}
		if err := tx.CreateBlockRecord(ctx, rec); err != nil {
			return err
		}
		if err := tx.SetUserBlocked(ctx, studentID, true); err != nil {
			return err
		}
		note, err = e.dispatcher.Record(ctx, tx, studentID,
			"Your account has been blocked. Reason: "+reason,
			model.NotificationTypeBlock, nil)
		return err
	})
	if err != nil {
		return err
	}
	e.dispatcher.Deliver("Account Blocked", note)
	return nil
}

// Unblock reinstates the student. All block records are removed, tolerant of
// duplicates left by older data; unblocking a student who is not blocked
// reports not_blocked.
func (e *Engine) Unblock(ctx context.Context, studentID string) error {
	var note model.Notification
	err := e.store.WithTx(ctx, func(tx *db.Store) error {
		student, err := tx.GetUserByIDForUpdate(ctx, studentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("user_not_found")
		}
		if err != nil {
			return err
		}
		if !student.IsStudent() {
			return apperr.Validation("not_a_student")
		}
		removed, err := tx.DeleteBlockRecords(ctx, studentID)
		if err != nil {
			return err
		}
		if removed == 0 && !student.IsBlocked {
			return apperr.Conflict("not_blocked")
		}
		if err := tx.SetUserBlocked(ctx, studentID, false); err != nil {
			return err
		}
		note, err = e.dispatcher.Record(ctx, tx, studentID,
			"Your account has been unblocked. You can use the platform again.",
			model.NotificationTypeUnblock, nil)
		return err
	})
	if err != nil {
		return err
	}
	e.dispatcher.Deliver("Account Unblocked", note)
	return nil
}

// IsBlocked reports whether a live block record exists for the student.
func (e *Engine) IsBlocked(ctx context.Context, studentID string) (bool, error) {
	return e.store.HasBlockRecord(ctx, studentID)
}
