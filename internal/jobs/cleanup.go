package jobs

import (
	"context"
	"log"
	"time"

	"campushelp/helpdesk/internal/db"
)

// StartCleanupJob periodically purges expired verification state: spent OTP
// windows, abandoned registrations, stale password resets and refresh
// sessions past their retention cutoff.
func StartCleanupJob(ctx context.Context, store *db.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				runCleanup(tickCtx, store)
				cancel()
			}
		}
	}()
}

func runCleanup(ctx context.Context, store *db.Store) {
	now := time.Now()
	if n, err := store.DeleteExpiredOTPs(ctx, now); err != nil {
		log.Printf("cleanup job otps error: %v", err)
	} else if n > 0 {
		log.Printf("cleanup job removed %d expired otps", n)
	}
	if n, err := store.DeleteExpiredPendingRegistrations(ctx, now); err != nil {
		log.Printf("cleanup job pending registrations error: %v", err)
	} else if n > 0 {
		log.Printf("cleanup job removed %d expired pending registrations", n)
	}
	if n, err := store.DeleteExpiredPasswordResets(ctx, now); err != nil {
		log.Printf("cleanup job password resets error: %v", err)
	} else if n > 0 {
		log.Printf("cleanup job removed %d expired password resets", n)
	}
	// Keep revoked/expired sessions for a week for audit, then drop them.
	if n, err := store.DeleteStaleRefreshSessions(ctx, now.Add(-7*24*time.Hour)); err != nil {
		log.Printf("cleanup job refresh sessions error: %v", err)
	} else if n > 0 {
		log.Printf("cleanup job removed %d stale refresh sessions", n)
	}
}
