package service

import (
	"fmt"
	"html"
)

const (
	subjectVerify         = "Verify Your Email"
	subjectVerifyNewEmail = "Verify Your New Email"
	subjectPasswordReset  = "Password Reset Request"
)

func verificationEmail(link string, newAddress bool) (string, string) {
	subject := subjectVerify
	intro := "Thanks for signing up. Please confirm your email address to start studying."
	if newAddress {
		subject = subjectVerifyNewEmail
		intro = "You changed the email on your account. Please confirm the new address."
	}
	return subject, fmt.Sprintf(`<p>%s</p>
<p><a href="%s">Verify email</a></p>
<p>This link expires in 24 hours.</p>`, intro, html.EscapeString(link))
}

func resetEmail(link string) (string, string) {
	return subjectPasswordReset, fmt.Sprintf(`<p>We received a request to reset your password.</p>
<p><a href="%s">Reset password</a></p>
<p>This link expires in 1 hour. If you did not ask for it, ignore this email.</p>`, html.EscapeString(link))
}
