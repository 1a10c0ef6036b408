// Package notify records in-app notifications and fans them out over email
// and the realtime push channel.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"campushelp/helpdesk/internal/apperr"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/mail"
	"campushelp/helpdesk/internal/model"
	"campushelp/helpdesk/internal/push"
)

const defaultListLimit = 20

type Dispatcher struct {
	store   *db.Store
	mail    mail.Sender
	push    push.Channel
	baseURL string
	timeout time.Duration
}

func NewDispatcher(store *db.Store, sender mail.Sender, channel push.Channel, baseURL string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{store: store, mail: sender, push: channel, baseURL: baseURL, timeout: timeout}
}

// Record inserts the notification row using the caller's transaction-bound
// store, so the row commits or rolls back with the side effect it describes.
// The returned notification is handed to Deliver after the commit.
func (d *Dispatcher) Record(ctx context.Context, tx *db.Store, userID, message, notifType string, relatedID *string) (model.Notification, error) {
	n := model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Type:      notifType,
		RelatedID: relatedID,
		CreatedAt: time.Now(),
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// Deliver sends the committed notifications out-of-band. Each delivery runs
// in its own goroutine with a bounded timeout; failures are logged and never
// surface to the request that produced the notification.
func (d *Dispatcher) Deliver(subject string, notes ...model.Notification) {
	for _, n := range notes {
		go d.deliverOne(subject, n)
	}
}

func (d *Dispatcher) deliverOne(subject string, n model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	user, err := d.store.GetUserByID(ctx, n.UserID)
	if err != nil {
		log.Printf("notify: lookup recipient %s: %v", n.UserID, err)
		return
	}

	body := n.Message + "\n\nVisit the platform to view and respond: " + d.baseURL
	if err := d.mail.Send(ctx, user.Email, subject, body); err != nil {
		log.Printf("notify: email to %s: %v", user.Email, err)
	}

	payload := map[string]any{
		"id":         n.ID,
		"message":    n.Message,
		"type":       n.Type,
		"related_id": n.RelatedID,
		"created_at": n.CreatedAt,
	}
	if err := d.push.Emit(ctx, n.UserID, "notification", payload); err != nil {
		log.Printf("notify: push to %s: %v", n.UserID, err)
	}
}

// List returns the recipient's newest notifications, default 20.
func (d *Dispatcher) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return d.store.ListNotifications(ctx, userID, limit)
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return d.store.CountUnreadNotifications(ctx, userID)
}

// MarkRead flips the read flag. A notification that does not exist or
// belongs to someone else reports notification_not_found either way.
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID, userID string) error {
	affected, err := d.store.MarkNotificationRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("notification_not_found")
	}
	return nil
}
