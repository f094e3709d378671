package services

import (
	"net/smtp"
	"testing"
	"tutorium/backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMailerSkipsWhenNotConfigured(t *testing.T) {
	m := NewMailer(&config.Config{}, zap.NewNop())

	called := false
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}

	require.NoError(t, m.SendWelcome("ada@example.com", "Ada"))
	assert.False(t, called)
}

func TestMailerSendsBadgeEmail(t *testing.T) {
	m := NewMailer(&config.Config{
		SMTPHost: "smtp.example.com",
		SMTPPort: "587",
		SMTPFrom: "no-reply@tutorium.app",
	}, zap.NewNop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.Nil(t, auth) // no credentials configured
		return nil
	}

	require.NoError(t, m.SendBadgeEarned("ada@example.com", "Week streak"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@tutorium.app", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Week streak")
	assert.Contains(t, string(gotMsg), "To: ada@example.com")
}
