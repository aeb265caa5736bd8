package utils

import (
	"fmt"

	"flowcrm/config"

	"gopkg.in/gomail.v2"
)

// sendMail delivers a single HTML message through the configured SMTP server.
func sendMail(to, subject, htmlBody string) error {
	smtp := config.AppConfig.SMTP
	if smtp.Host == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", smtp.FromEmail, smtp.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
	return d.DialAndSend(m)
}

// SendWorkflowEmail delivers a workflow-authored message. The body is
// treated as HTML.
func SendWorkflowEmail(to, subject, body string) error {
	return sendMail(to, subject, body)
}

// SendInvitationEmail mails a newly invited user their activation link.
func SendInvitationEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/accept-invitation?token=%s", config.AppConfig.ClientURL, token)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>You've been invited</h2>
			<p>Hi %s,</p>
			<p>You have been invited to join your team's CRM. Click the link below to set your password and activate your account:</p>
			<p><a href="%s">Accept invitation</a></p>
			<p>This invitation expires in 7 days.</p>
		</body>
		</html>
	`, name, link)
	return sendMail(to, "You've been invited to FlowCRM", body)
}

// SendPasswordResetEmail mails a password reset link scoped to the tenant's
// subdomain.
func SendPasswordResetEmail(to, token, subdomain string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s&subdomain=%s", config.AppConfig.ClientURL, token, subdomain)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Password Reset Request</h2>
			<p>Click the link below to reset your password:</p>
			<p><a href="%s">Reset password</a></p>
			<p>This link expires in 1 hour. If you didn't request this, please ignore this email.</p>
		</body>
		</html>
	`, link)
	return sendMail(to, "Reset your password", body)
}
