package db

import (
	"context"
	"time"

	"campushelp/helpdesk/internal/model"
)

// PlatformStats gathers the admin dashboard counters. "Today" means since
// local midnight in the given location.
func (s *Store) PlatformStats(ctx context.Context, now time.Time) (model.PlatformStats, error) {
	var stats model.PlatformStats
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users WHERE user_type = 'student'),
			(SELECT count(*) FROM users WHERE user_type = 'staff'),
			(SELECT count(*) FROM questions),
			(SELECT count(*) FROM answers),
			(SELECT count(*) FROM users WHERE is_blocked),
			(SELECT count(*) FROM questions WHERE created_at >= $1),
			(SELECT count(*) FROM answers WHERE created_at >= $1),
			(SELECT count(*) FROM questions WHERE is_answered)
	`, midnight).Scan(
		&stats.TotalStudents,
		&stats.TotalStaff,
		&stats.TotalQuestions,
		&stats.TotalAnswers,
		&stats.BlockedStudents,
		&stats.QuestionsToday,
		&stats.AnswersToday,
		&stats.AnsweredQuestions,
	)
	if err != nil {
		return model.PlatformStats{}, err
	}
	if stats.TotalQuestions > 0 {
		stats.ResponseRate = float64(stats.AnsweredQuestions) / float64(stats.TotalQuestions)
	}

	stats.TopStudents, err = s.topActivity(ctx, `
		SELECT u.id, u.email, count(q.id) AS n
		FROM users u
		JOIN questions q ON q.student_id = u.id
		GROUP BY u.id, u.email
		ORDER BY n DESC, u.email
		LIMIT 5
	`)
	if err != nil {
		return model.PlatformStats{}, err
	}
	stats.TopStaff, err = s.topActivity(ctx, `
		SELECT u.id, u.email, count(a.id) AS n
		FROM users u
		JOIN answers a ON a.staff_id = u.id
		GROUP BY u.id, u.email
		ORDER BY n DESC, u.email
		LIMIT 5
	`)
	if err != nil {
		return model.PlatformStats{}, err
	}
	return stats, nil
}

func (s *Store) topActivity(ctx context.Context, query string) ([]model.UserActivity, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.UserActivity
	for rows.Next() {
		var e model.UserActivity
		if err := rows.Scan(&e.UserID, &e.Email, &e.Count); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
