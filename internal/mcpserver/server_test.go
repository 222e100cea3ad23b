package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/pkg/config"
	"github.com/wentf9/commkit/pkg/mail"
	"github.com/wentf9/commkit/pkg/remote"
	"github.com/wentf9/commkit/pkg/telegram"
	"github.com/wentf9/commkit/pkg/twilio"
)

type fakeMessenger struct{ to []string }

func (f *fakeMessenger) SendSMS(_ context.Context, to, _ string) (twilio.Receipt, error) {
	f.to = append(f.to, to)
	return twilio.Receipt{SID: "SM9", Status: "queued"}, nil
}

func (f *fakeMessenger) SendWhatsApp(_ context.Context, to, _, _ string) (twilio.Receipt, error) {
	f.to = append(f.to, to)
	return twilio.Receipt{SID: "SM8"}, nil
}

func (f *fakeMessenger) Call(_ context.Context, to, _ string) (twilio.Receipt, error) {
	f.to = append(f.to, to)
	return twilio.Receipt{SID: "CA7"}, nil
}

type fakeMailer struct{ err error }

func (f fakeMailer) Send(context.Context, mail.Message) error { return f.err }

type fakeNotifier struct{}

func (fakeNotifier) Send(context.Context, string) (telegram.Receipt, error) {
	return telegram.Receipt{MessageID: 5, ChatID: 99}, nil
}

type fakeRunner struct {
	res remote.Result
	err error
	req remote.Request
}

func (f *fakeRunner) Run(_ context.Context, req remote.Request) (remote.Result, error) {
	f.req = req
	return f.res, f.err
}

func connect(t *testing.T, tk *toolkit.Toolkit) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	ss, err := New(tk, "test").Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func newToolkit(runner *fakeRunner, messenger *fakeMessenger, mailErr error) *toolkit.Toolkit {
	return &toolkit.Toolkit{
		Messenger: func() (toolkit.Messenger, error) { return messenger, nil },
		Mailer:    func() (toolkit.Mailer, error) { return fakeMailer{err: mailErr}, nil },
		Notifier:  func() (toolkit.Notifier, error) { return fakeNotifier{}, nil },
		Runner:    runner,
	}
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func structured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	m, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content: %#v", res.StructuredContent)
	return m
}

func TestListTools(t *testing.T) {
	cs := connect(t, newToolkit(&fakeRunner{}, &fakeMessenger{}, nil))
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"send_sms", "send_whatsapp", "send_email", "send_telegram", "run_remote_command", "make_call",
	}, names)
}

func TestRunRemoteCommand(t *testing.T) {
	runner := &fakeRunner{res: remote.Result{Command: "date", Stdout: "ok\n"}}
	cs := connect(t, newToolkit(runner, &fakeMessenger{}, nil))

	res := call(t, cs, "run_remote_command", map[string]any{
		"host": "10.0.0.1", "username": "root", "password": "pw", "label": "date",
	})
	require.False(t, res.IsError)
	out := structured(t, res)
	require.Equal(t, "date", out["command"])
	require.Equal(t, "ok\n", out["stdout"])
	require.Equal(t, "", out["stderr"])
	require.EqualValues(t, 0, out["exit_status"])
	require.Equal(t, remote.Request{Host: "10.0.0.1", Username: "root", Password: "pw", Label: "date"}, runner.req)
}

func TestRunRemoteCommandFailure(t *testing.T) {
	runner := &fakeRunner{err: remote.ErrUnknownLabel}
	cs := connect(t, newToolkit(runner, &fakeMessenger{}, nil))

	res := call(t, cs, "run_remote_command", map[string]any{
		"host": "h", "username": "u", "label": "rm -rf /",
	})
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "unknown command label")
}

func TestMissingRequiredArgument(t *testing.T) {
	cs := connect(t, newToolkit(&fakeRunner{}, &fakeMessenger{}, nil))
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "send_sms",
		Arguments: map[string]any{"message": "no recipient"},
	})
	require.ErrorContains(t, err, "to")
}

func TestMessagingTools(t *testing.T) {
	messenger := &fakeMessenger{}
	cs := connect(t, newToolkit(&fakeRunner{}, messenger, nil))

	res := call(t, cs, "send_sms", map[string]any{"to": "+1", "message": "hi"})
	require.False(t, res.IsError)
	require.Equal(t, "SM9", structured(t, res)["sid"])

	res = call(t, cs, "send_whatsapp", map[string]any{"to": "+2", "message": "hi"})
	require.Equal(t, "SM8", structured(t, res)["sid"])

	res = call(t, cs, "make_call", map[string]any{"to": "+3"})
	require.Equal(t, "CA7", structured(t, res)["sid"])

	res = call(t, cs, "send_telegram", map[string]any{"message": "hi"})
	require.EqualValues(t, 5, structured(t, res)["message_id"])

	require.Equal(t, []string{"+1", "+2", "+3"}, messenger.to)
}

func TestEmailFailureIsToolError(t *testing.T) {
	cs := connect(t, newToolkit(&fakeRunner{}, &fakeMessenger{}, errors.New("535 auth failed")))
	res := call(t, cs, "send_email", map[string]any{"from": "a@b.c", "to": "d@e.f", "subject": "s", "body": "b"})
	require.True(t, res.IsError)
}

func TestMissingConfigIsToolError(t *testing.T) {
	cs := connect(t, toolkit.New(config.Config{}))
	res := call(t, cs, "send_sms", map[string]any{"to": "+1", "message": "hi"})
	require.True(t, res.IsError)
	text := res.Content[0].(*mcp.TextContent)
	require.Contains(t, text.Text, "ACCOUNT_SID")
}
