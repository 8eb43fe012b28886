package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/config"
)

func TestTemplatesLinks(t *testing.T) {
	tpl := Templates{BaseURL: "https://support.example.com"}

	tests := []struct {
		name string
		msg  Message
		link string
	}{
		{"activation", tpl.Activation("a@example.com", "alice", "tok1"), "https://support.example.com/activate/tok1"},
		{"password reset", tpl.PasswordReset("a@example.com", "alice", "tok2"), "https://support.example.com/password-reset/tok2"},
		{"secondary email", tpl.SecondaryEmail("b@example.com", "alice", "tok3"), "https://support.example.com/activate-secondary-email/tok3"},
		{"ticket answered", tpl.TicketAnswered("a@example.com", 7, "Login"), "https://support.example.com/tickets/7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, tc.msg.Text, tc.link)
			assert.NotEmpty(t, tc.msg.Subject)
		})
	}
	assert.Equal(t, "b@example.com", tests[2].msg.To)
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	m := NewMailer(config.MailConfig{From: "noreply@example.com"}, zap.NewNop())
	_, ok := m.(*LogMailer)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "s"}))

	m = NewMailer(config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}, zap.NewNop())
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}
