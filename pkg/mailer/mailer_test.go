package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	to, subject, body string
}

type fakeSender struct {
	sent []captured
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	f.sent = append(f.sent, captured{to, subject, htmlBody})
	return nil
}

func TestMailer_SendOTP(t *testing.T) {
	s := &fakeSender{}
	m := New(s, "", "https://hamro.test")

	require.NoError(t, m.SendOTP("sita@example.com", "Sita", "123456", 10))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "sita@example.com", s.sent[0].to)
	assert.Equal(t, "Hamro Engineering - Verify your email address", s.sent[0].subject)
	assert.Contains(t, s.sent[0].body, "123456")
	assert.Contains(t, s.sent[0].body, "10 minutes")
	assert.Contains(t, s.sent[0].body, "Sita")
}

func TestMailer_Templates(t *testing.T) {
	s := &fakeSender{}
	m := New(s, "Hamro", "https://hamro.test")

	require.NoError(t, m.SendPasswordReset("a@b.com", "A", "654321", 10))
	require.NoError(t, m.SendWelcome("a@b.com", "A"))
	require.NoError(t, m.SendNotification("a@b.com", "A", "Test result", "You scored <b>80</b>"))
	require.Len(t, s.sent, 3)

	assert.Contains(t, s.sent[0].body, "654321")
	assert.Contains(t, s.sent[0].body, "Password Reset")
	assert.Contains(t, s.sent[1].body, "https://hamro.test/dashboard")
	assert.Equal(t, "Hamro - Test result", s.sent[2].subject)
	// message text is escaped
	assert.Contains(t, s.sent[2].body, "&lt;b&gt;80&lt;/b&gt;")
}
