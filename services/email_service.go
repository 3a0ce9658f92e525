package services

import (
	"fmt"
	"log"
	"net/smtp"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/config"
)

// Mailer is the outbound notification channel the enrollment engine calls.
// Sends are best-effort: state transitions never depend on their outcome.
type Mailer interface {
	SendAssignmentInvitation(toEmail, courseTitle, accessToken string, deadline time.Time) error
	SendReminder(toEmail, name, courseTitle string, deadline time.Time) error
	SendCertificateIssued(toEmail, name, courseTitle string) error
	SendCompletionNoticeToHR(employeeName, employeeEmail, courseTitle string) error
}

// EmailService handles sending emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	hrEmail  string
	appURL   string
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.EnviornmentVariable) *EmailService {
	from := cfg.SMTP_FROM
	if from == "" {
		from = "noreply@traintrack.app"
	}

	return &EmailService{
		host:     cfg.SMTP_HOST,
		port:     cfg.SMTP_PORT,
		username: cfg.SMTP_USERNAME,
		password: cfg.SMTP_PASSWORD,
		from:     from,
		hrEmail:  cfg.HR_EMAIL,
		appURL:   cfg.APP_URL,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.host != "" && e.username != "" && e.password != ""
}

// SendAssignmentInvitation emails a tokenized self-service onboarding link
// to an invitee who may not have an account yet.
func (e *EmailService) SendAssignmentInvitation(toEmail, courseTitle, accessToken string, deadline time.Time) error {
	accessLink := fmt.Sprintf("%s/course-access/%s", e.appURL, accessToken)

	subject := fmt.Sprintf("Training Assigned: %s", courseTitle)
	body := e.buildEmailBody(
		"You have been assigned a training course",
		fmt.Sprintf(`<p>Your organization has assigned you the training course <strong>%s</strong>.</p>
<p>Please complete it by <strong>%s</strong>.</p>
<p style="text-align:center"><a class="button" href="%s">Start Training</a></p>
<p>If the button does not work, open this link: %s</p>`,
			courseTitle, deadline.Format("January 2, 2006"), accessLink, accessLink),
	)

	return e.sendEmail(toEmail, subject, body)
}

// SendReminder emails a deadline reminder for an incomplete enrollment.
func (e *EmailService) SendReminder(toEmail, name, courseTitle string, deadline time.Time) error {
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Reminder: %s is due soon", courseTitle)
	body := e.buildEmailBody(
		"Training reminder",
		fmt.Sprintf(`<p>Hi %s,</p>
<p>This is a reminder that your training course <strong>%s</strong> is due by <strong>%s</strong>.</p>
<p style="text-align:center"><a class="button" href="%s">Continue Training</a></p>`,
			name, courseTitle, deadline.Format("January 2, 2006"), e.appURL),
	)

	return e.sendEmail(toEmail, subject, body)
}

// SendCertificateIssued notifies the participant that their certificate is ready.
func (e *EmailService) SendCertificateIssued(toEmail, name, courseTitle string) error {
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Certificate Issued: %s", courseTitle)
	body := e.buildEmailBody(
		"Congratulations!",
		fmt.Sprintf(`<p>Hi %s,</p>
<p>You have successfully completed <strong>%s</strong>. Your certificate is now available in your dashboard.</p>
<p style="text-align:center"><a class="button" href="%s">View Certificate</a></p>`,
			name, courseTitle, e.appURL),
	)

	return e.sendEmail(toEmail, subject, body)
}

// SendCompletionNoticeToHR informs the HR mailbox about a completion.
func (e *EmailService) SendCompletionNoticeToHR(employeeName, employeeEmail, courseTitle string) error {
	if e.hrEmail == "" {
		return fmt.Errorf("HR_EMAIL not configured")
	}

	subject := fmt.Sprintf("Training Completed: %s", courseTitle)
	body := e.buildEmailBody(
		"Training completion notice",
		fmt.Sprintf(`<p><strong>%s</strong> (%s) has completed the training course <strong>%s</strong> and acknowledged the certificate.</p>`,
			employeeName, employeeEmail, courseTitle),
	)

	return e.sendEmail(e.hrEmail, subject, body)
}

// buildEmailBody wraps content in the shared HTML email layout
func (e *EmailService) buildEmailBody(heading, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: #ffffff;
            border-radius: 8px;
            padding: 40px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);
        }
        h2 { color: #1a3c6e; margin-top: 0; }
        .button {
            display: inline-block;
            background-color: #1a3c6e;
            color: #ffffff !important;
            padding: 14px 28px;
            text-decoration: none;
            border-radius: 6px;
            font-weight: 600;
        }
        .footer {
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            font-size: 12px;
            color: #999;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <h2>%s</h2>
        %s
        <div class="footer">
            This is an automated message from TrainTrack. Please do not reply.
        </div>
    </div>
</body>
</html>`, heading, content)
}

// sendEmail delivers a single HTML message over SMTP
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured, dropping email to %s: %s", to, subject)
		return fmt.Errorf("SMTP not configured")
	}

	msg := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n"
	msg += fmt.Sprintf("From: TrainTrack <%s>\r\n", e.from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	if err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// dispatchAsync runs a send in the background and only logs failures. Used
// for notifications that must never roll back the state change that
// triggered them.
func dispatchAsync(what string, send func() error) {
	go func() {
		if err := send(); err != nil {
			log.Printf("[MAIL] %s failed: %v", what, err)
		}
	}()
}
