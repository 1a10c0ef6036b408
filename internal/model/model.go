package model

import "time"

const (
	UserTypeStudent = "student"
	UserTypeStaff   = "staff"
)

const (
	OTPPurposeRegistration  = "registration"
	OTPPurposePasswordReset = "password_reset"
)

const (
	NotificationTypeQuestion = "question"
	NotificationTypeAnswer   = "answer"
	NotificationTypeBlock    = "block"
	NotificationTypeUnblock  = "unblock"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	UserType     string
	IsVerified   bool
	IsBlocked    bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

func (u User) IsStudent() bool { return u.UserType == UserTypeStudent }
func (u User) IsStaff() bool   { return u.UserType == UserTypeStaff }

// OTP is a single-use verification code. Only the sha256 of the code is
// stored; a new issuance for the same (email, purpose) supersedes all prior
// unused rows.
type OTP struct {
	ID        string
	Email     string
	CodeHash  string
	Purpose   string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// PendingRegistration holds a registration between OTP issuance and
// verification. The password is hashed before the record exists and the
// client only ever sees the capability token, never this row.
type PendingRegistration struct {
	ID           string
	TokenHash    string
	Email        string
	PasswordHash string
	UserType     string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type PasswordReset struct {
	ID        string
	TokenHash string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
}

// Question is public (any staff may answer) or private to exactly one staff
// member. StaffID is set iff the question is private.
type Question struct {
	ID         string
	Content    string
	IsPublic   bool
	StudentID  string
	StaffID    *string
	IsAnswered bool
	CreatedAt  time.Time
}

type Answer struct {
	ID         string
	QuestionID string
	StaffID    string
	Content    string
	CreatedAt  time.Time
}

// BlockRecord suspends a student platform-wide. The student's User.IsBlocked
// flag is kept in step with record existence inside the same transaction.
type BlockRecord struct {
	ID        string
	StudentID string
	StaffID   string
	Reason    string
	CreatedAt time.Time
}

// UserActivity is one row of the admin leaderboards.
type UserActivity struct {
	UserID string
	Email  string
	Count  int64
}

type PlatformStats struct {
	TotalStudents     int64
	TotalStaff        int64
	TotalQuestions    int64
	TotalAnswers      int64
	BlockedStudents   int64
	QuestionsToday    int64
	AnswersToday      int64
	AnsweredQuestions int64
	ResponseRate      float64
	TopStudents       []UserActivity
	TopStaff          []UserActivity
}

type Notification struct {
	ID        string
	UserID    string
	Message   string
	Type      string
	RelatedID *string
	IsRead    bool
	CreatedAt time.Time
}
