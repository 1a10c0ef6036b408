// Package helpdesk implements the question and answer lifecycle: students
// ask anonymously, staff answer, notifications fan out to the interested
// side.
package helpdesk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campushelp/helpdesk/internal/apperr"
	"campushelp/helpdesk/internal/db"
	"campushelp/helpdesk/internal/filter"
	"campushelp/helpdesk/internal/model"
	"campushelp/helpdesk/internal/notify"
)

type Service struct {
	store      *db.Store
	filter     *filter.Filter
	dispatcher *notify.Dispatcher
}

func NewService(store *db.Store, f *filter.Filter, dispatcher *notify.Dispatcher) *Service {
	return &Service{store: store, filter: f, dispatcher: dispatcher}
}

// SubmitQuestion files a question for the student. Public questions notify
// every staff member; private ones notify only the targeted staff member,
// without revealing who asked. The question and its notification rows commit
// together.
func (s *Service) SubmitQuestion(ctx context.Context, studentID, content string, isPublic bool, staffID *string) (model.Question, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Question{}, apperr.Validation("empty_question")
	}
	if s.filter.ContainsProhibited(content) {
		return model.Question{}, apperr.Validation("inappropriate_content")
	}

	student, err := s.store.GetUserByID(ctx, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Question{}, apperr.NotFound("user_not_found")
	}
	if err != nil {
		return model.Question{}, err
	}
	if !student.IsStudent() {
		return model.Question{}, apperr.Forbidden("students_only")
	}
	if err := s.ensureNotBlocked(ctx, student); err != nil {
		return model.Question{}, err
	}

	if !isPublic {
		if staffID == nil || *staffID == "" {
			return model.Question{}, apperr.Validation("staff_target_required")
		}
		target, err := s.store.GetUserByID(ctx, *staffID)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !target.IsStaff()) {
			return model.Question{}, apperr.Validation("invalid_staff_target")
		}
		if err != nil {
			return model.Question{}, err
		}
	} else {
		staffID = nil
	}

	q := model.Question{
		ID:        uuid.NewString(),
		Content:   content,
		IsPublic:  isPublic,
		StudentID: studentID,
		StaffID:   staffID,
		CreatedAt: time.Now(),
	}

	var notes []model.Notification
	var subject string
	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.CreateQuestion(ctx, q); err != nil {
			return err
		}
		if isPublic {
			subject = "New Question on QA Platform"
			staff, err := tx.ListStaff(ctx)
			if err != nil {
				return err
			}
			message := fmt.Sprintf("New public question: %q", truncate(content, 50))
			for _, member := range staff {
				note, err := s.dispatcher.Record(ctx, tx, member.ID, message, model.NotificationTypeQuestion, &q.ID)
				if err != nil {
					return err
				}
				notes = append(notes, note)
			}
			return nil
		}
		subject = "New Private Question on QA Platform"
		note, err := s.dispatcher.Record(ctx, tx, *staffID,
			"New private question from anonymous student",
			model.NotificationTypeQuestion, &q.ID)
		if err != nil {
			return err
		}
		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return model.Question{}, err
	}
	s.dispatcher.Deliver(subject, notes...)
	return q, nil
}

// SubmitAnswer records a staff answer and marks the question answered. The
// student is notified without learning anything beyond the fact of the
// answer; the answer, the flag and the notification commit together.
func (s *Service) SubmitAnswer(ctx context.Context, questionID, staffID, content string) (model.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Answer{}, apperr.Validation("empty_answer")
	}
	if s.filter.ContainsProhibited(content) {
		return model.Answer{}, apperr.Validation("inappropriate_content")
	}

	staff, err := s.store.GetUserByID(ctx, staffID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Answer{}, apperr.NotFound("user_not_found")
	}
	if err != nil {
		return model.Answer{}, err
	}
	if !staff.IsStaff() {
		return model.Answer{}, apperr.Forbidden("staff_only")
	}

	a := model.Answer{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		StaffID:    staffID,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	var note model.Notification
	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		q, err := tx.GetQuestionByIDForUpdate(ctx, questionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("question_not_found")
		}
		if err != nil {
			return err
		}
		if !q.IsPublic && (q.StaffID == nil || *q.StaffID != staffID) {
			return apperr.Forbidden("not_your_question")
		}
		if err := tx.CreateAnswer(ctx, a); err != nil {
			return err
		}
		if err := tx.SetQuestionAnswered(ctx, questionID, true); err != nil {
			return err
		}
		note, err = s.dispatcher.Record(ctx, tx, q.StudentID,
			"Your question has been answered", model.NotificationTypeAnswer, &questionID)
		return err
	})
	if err != nil {
		return model.Answer{}, err
	}
	s.dispatcher.Deliver("Your Question Has Been Answered", note)
	return a, nil
}

// GetQuestion returns the question and its answers when the caller may see
// it. Public questions are visible to every authenticated user; private ones
// only to the asking student and the targeted staff member, anyone else is
// refused.
func (s *Service) GetQuestion(ctx context.Context, questionID, callerID, callerType string) (model.Question, []model.Answer, error) {
	q, err := s.store.GetQuestionByID(ctx, questionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Question{}, nil, apperr.NotFound("question_not_found")
	}
	if err != nil {
		return model.Question{}, nil, err
	}
	if !canSee(q, callerID, callerType) {
		return model.Question{}, nil, apperr.Forbidden("not_your_question")
	}
	answers, err := s.store.ListAnswersByQuestion(ctx, questionID)
	if err != nil {
		return model.Question{}, nil, err
	}
	return q, answers, nil
}

func canSee(q model.Question, callerID, callerType string) bool {
	if q.IsPublic {
		return true
	}
	if q.StudentID == callerID {
		return true
	}
	return callerType == model.UserTypeStaff && q.StaffID != nil && *q.StaffID == callerID
}

func (s *Service) ListPublicQuestions(ctx context.Context) ([]model.Question, error) {
	return s.store.ListPublicQuestions(ctx)
}

func (s *Service) ListQuestionsByStudent(ctx context.Context, studentID string) ([]model.Question, error) {
	return s.store.ListQuestionsByStudent(ctx, studentID)
}

func (s *Service) ListPrivateQuestionsForStaff(ctx context.Context, staffID string) ([]model.Question, error) {
	return s.store.ListPrivateQuestionsForStaff(ctx, staffID)
}

// ListStaff lists verified staff members students may target with a private
// question.
func (s *Service) ListStaff(ctx context.Context) ([]model.User, error) {
	return s.store.ListStaff(ctx)
}

func (s *Service) ensureNotBlocked(ctx context.Context, student model.User) error {
	if student.IsBlocked {
		return apperr.Forbidden("account_blocked")
	}
	// The flag and the record are written in one transaction, but check the
	// record too so a half-migrated row still enforces the block.
	blocked, err := s.store.HasBlockRecord(ctx, student.ID)
	if err != nil {
		return err
	}
	if blocked {
		return apperr.Forbidden("account_blocked")
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
