package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendDocSummary(toEmail, subject, body string) error
	SendConfirmationRequest(toEmail, confirmURL string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendDocSummary(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)

	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<p>%s</p>
			<p>Thanks for using Doc Support.</p>
		</div>
	`, strings.ReplaceAll(body, "\n", "<br>"))

	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send doc summary to %s: %w", toEmail, err)
	}
	return nil
}

func (s *emailService) SendConfirmationRequest(toEmail, confirmURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Confirm your Doc Support subscription")

	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Almost there!</h2>
			<p>You asked Doc Support to email you documentation. Click the button below to confirm:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Confirm subscription</a>
			<p>Or copy this link:</p>
			<p>%s</p>
			<p>You will only receive emails when you request them. If you didn't request this, please ignore this email.</p>
		</div>
	`, confirmURL, confirmURL)

	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation request to %s: %w", toEmail, err)
	}
	return nil
}
