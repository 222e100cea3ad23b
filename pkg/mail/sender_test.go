package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/wentf9/commkit/pkg/config"
)

type fakeDialer struct {
	sent []*gomail.Msg
	err  error
}

func (f *fakeDialer) DialAndSendWithContext(_ context.Context, msgs ...*gomail.Msg) error {
	f.sent = append(f.sent, msgs...)
	return f.err
}

var smtpCfg = config.Email{Password: "app-pass", Host: "smtp.example.com", Port: 587}

func newTestSender(t *testing.T, d *fakeDialer) (*Sender, *[]string) {
	t.Helper()
	var users []string
	s, err := New(smtpCfg, WithDialerFactory(func(cfg config.Email, username string) (Dialer, error) {
		users = append(users, username)
		return d, nil
	}))
	require.NoError(t, err)
	return s, &users
}

func TestNewRequiresPassword(t *testing.T) {
	_, err := New(config.Email{Host: "smtp.example.com"})
	require.ErrorIs(t, err, config.ErrMissing)
}

func TestSend(t *testing.T) {
	d := &fakeDialer{}
	s, users := newTestSender(t, d)
	err := s.Send(context.Background(), Message{
		From:    "me@example.com",
		To:      "you@example.com",
		Subject: "Status",
		Body:    "all good",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"me@example.com"}, *users)

	require.Len(t, d.sent, 1)
	msg := d.sent[0]
	require.Equal(t, "me@example.com", msg.GetFrom()[0].Address)
	require.Equal(t, "you@example.com", msg.GetTo()[0].Address)
	require.Equal(t, []string{"Status"}, msg.GetGenHeader(gomail.HeaderSubject))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "all good")
}

func TestSendValidation(t *testing.T) {
	d := &fakeDialer{}
	s, _ := newTestSender(t, d)
	require.ErrorIs(t, s.Send(context.Background(), Message{To: "a@b.c"}), ErrNoSender)
	require.ErrorIs(t, s.Send(context.Background(), Message{From: "a@b.c"}), ErrNoRecipient)
	require.ErrorContains(t, s.Send(context.Background(), Message{From: "a@b.c", To: "not an address"}), "invalid recipient")
	require.Empty(t, d.sent)
}

func TestSendSMTPError(t *testing.T) {
	d := &fakeDialer{err: errors.New("535 authentication failed")}
	s, _ := newTestSender(t, d)
	err := s.Send(context.Background(), Message{From: "a@b.c", To: "d@e.f"})
	require.ErrorContains(t, err, "smtp.example.com:587")
	require.ErrorContains(t, err, "535")
}
