package db

import (
	"context"

	"campushelp/helpdesk/internal/model"
)

func (s *Store) CreateBlockRecord(ctx context.Context, rec model.BlockRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO blocked_students (id, student_id, staff_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.StudentID, rec.StaffID, rec.Reason, rec.CreatedAt)
	return err
}

func (s *Store) HasBlockRecord(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blocked_students WHERE student_id = $1)
	`, studentID).Scan(&exists)
	return exists, err
}

func (s *Store) GetBlockRecord(ctx context.Context, studentID string) (model.BlockRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, student_id, staff_id, reason, created_at
		FROM blocked_students
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, studentID)
	var rec model.BlockRecord
	err := row.Scan(
		&rec.ID,
		&rec.StudentID,
		&rec.StaffID,
		&rec.Reason,
		&rec.CreatedAt,
	)
	return rec, err
}

// DeleteBlockRecords removes every record for the student and reports how
// many existed.
func (s *Store) DeleteBlockRecords(ctx context.Context, studentID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM blocked_students WHERE student_id = $1
	`, studentID)
	return tag.RowsAffected(), err
}
