package mail

import "fmt"

const (
	SubjectVerifyEmail   = "Verify Your Email - QA Platform"
	SubjectPasswordReset = "Password Reset OTP - QA Platform"
)

func VerificationBody(code string) string {
	return fmt.Sprintf("Your verification code is: %s\n\nThe code expires in 10 minutes. If you did not register, ignore this email.", code)
}

func PasswordResetBody(code string) string {
	return fmt.Sprintf("Your password reset code is: %s\n\nThe code expires in 10 minutes. If you did not request a reset, ignore this email.", code)
}
