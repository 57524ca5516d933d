package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWelcomeBody(t *testing.T) {
	body, err := WelcomeBody("bob@dylan.com")
	require.NoError(t, err)
	require.Contains(t, body, "Hello bob@dylan.com,")

	body, err = WelcomeBody("<script>@x.y")
	require.NoError(t, err)
	require.NotContains(t, body, "<script>")
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", From: "noreply@files.local"})
	require.Equal(t, 587, s.cfg.Port)

	msg, err := s.message("bob@dylan.com", WelcomeSubject, "<p>hi</p>")
	require.NoError(t, err)
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	require.Equal(t, []string{"bob@dylan.com"}, rcpts)
	require.Equal(t, []string{WelcomeSubject}, msg.GetGenHeader(gomail.HeaderSubject))
}

func TestSMTPSender_BadAddress(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", From: "noreply@files.local"})
	_, err := s.message("not an address", "s", "b")
	require.Error(t, err)

	err = s.Send(context.Background(), "not an address", "s", "b")
	require.ErrorContains(t, err, "recipient address")
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), "a@b.c", WelcomeSubject, "body"))
	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "a@b.c", entries[0].ContextMap()["to"])
}
