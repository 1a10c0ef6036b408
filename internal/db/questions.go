package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/model"
)

const questionColumns = `id, content, is_public, student_id, staff_id, is_answered, created_at`

func (s *Store) CreateQuestion(ctx context.Context, q model.Question) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO questions (id, content, is_public, student_id, staff_id, is_answered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, q.ID, q.Content, q.IsPublic, q.StudentID, q.StaffID, q.IsAnswered, q.CreatedAt)
	return err
}

func (s *Store) GetQuestionByID(ctx context.Context, questionID string) (model.Question, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE id = $1
	`, questionID)
	return scanQuestion(row)
}

// GetQuestionByIDForUpdate locks the question row so two answers to the same
// question serialize.
func (s *Store) GetQuestionByIDForUpdate(ctx context.Context, questionID string) (model.Question, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE id = $1
		FOR UPDATE
	`, questionID)
	return scanQuestion(row)
}

func (s *Store) SetQuestionAnswered(ctx context.Context, questionID string, answered bool) error {
	_, err := s.db.Exec(ctx, `
		UPDATE questions SET is_answered = $2 WHERE id = $1
	`, questionID, answered)
	return err
}

func (s *Store) ListPublicQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE is_public
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *Store) ListQuestionsByStudent(ctx context.Context, studentID string) ([]model.Question, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE student_id = $1
		ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *Store) ListPrivateQuestionsForStaff(ctx context.Context, staffID string) ([]model.Question, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE staff_id = $1
		ORDER BY created_at DESC
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM questions WHERE id = $1
	`, questionID)
	return err
}

func (s *Store) CreateAnswer(ctx context.Context, a model.Answer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO answers (id, question_id, staff_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.QuestionID, a.StaffID, a.Content, a.CreatedAt)
	return err
}

func (s *Store) ListAnswersByQuestion(ctx context.Context, questionID string) ([]model.Answer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, question_id, staff_id, content, created_at
		FROM answers
		WHERE question_id = $1
		ORDER BY created_at
	`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.StaffID, &a.Content, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	err := row.Scan(
		&q.ID,
		&q.Content,
		&q.IsPublic,
		&q.StudentID,
		&q.StaffID,
		&q.IsAnswered,
		&q.CreatedAt,
	)
	return q, err
}
