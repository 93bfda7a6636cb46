package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Sender delivers a rendered HTML email
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Mailer renders Hamro emails and hands them to a Sender
type Mailer struct {
	sender  Sender
	appName string
	baseURL string
}

// New creates a new Mailer instance
func New(sender Sender, appName, baseURL string) *Mailer {
	if appName == "" {
		appName = "Hamro Engineering"
	}
	return &Mailer{sender: sender, appName: appName, baseURL: baseURL}
}

// SendOTP sends an OTP verification email
func (m *Mailer) SendOTP(toEmail, name, code string, expiryMinutes int) error {
	subject := m.appName + " - Verify your email address"

	body, err := m.render(otpTemplate, map[string]interface{}{
		"AppName":       m.appName,
		"Name":          name,
		"Code":          code,
		"ExpiryMinutes": expiryMinutes,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return m.sender.Send(toEmail, subject, body)
}

// SendPasswordReset sends a password reset OTP email
func (m *Mailer) SendPasswordReset(toEmail, name, code string, expiryMinutes int) error {
	subject := m.appName + " - Reset your password"

	body, err := m.render(resetTemplate, map[string]interface{}{
		"AppName":       m.appName,
		"Name":          name,
		"Code":          code,
		"ExpiryMinutes": expiryMinutes,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return m.sender.Send(toEmail, subject, body)
}

// SendWelcome greets a freshly verified user
func (m *Mailer) SendWelcome(toEmail, name string) error {
	subject := "Welcome to " + m.appName

	body, err := m.render(welcomeTemplate, map[string]interface{}{
		"AppName": m.appName,
		"Name":    name,
		"URL":     m.baseURL + "/dashboard",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return m.sender.Send(toEmail, subject, body)
}

// SendNotification mirrors an in-app notification by email
func (m *Mailer) SendNotification(toEmail, name, title, message string) error {
	body, err := m.render(notificationTemplate, map[string]interface{}{
		"AppName": m.appName,
		"Name":    name,
		"Title":   title,
		"Message": message,
		"URL":     m.baseURL + "/dashboard",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return m.sender.Send(toEmail, m.appName+" - "+title, body)
}

func (m *Mailer) render(t *template.Template, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
