package twilio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/wentf9/commkit/pkg/config"
)

type fakeAPI struct {
	messages []*openapi.CreateMessageParams
	calls    []*openapi.CreateCallParams
	err      error
}

func (f *fakeAPI) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.messages = append(f.messages, p)
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "SM123", "queued"
	return &openapi.ApiV2010Message{Sid: &sid, Status: &status}, nil
}

func (f *fakeAPI) CreateCall(p *openapi.CreateCallParams) (*openapi.ApiV2010Call, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "CA123", "queued"
	return &openapi.ApiV2010Call{Sid: &sid, Status: &status}, nil
}

var account = config.Twilio{AccountSID: "AC1", AuthToken: "tok", Phone: "+15550001111"}

func newTestClient(t *testing.T, cfg config.Twilio) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	c, err := New(cfg, WithAPI(api))
	require.NoError(t, err)
	return c, api
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(config.Twilio{Phone: "+1"})
	require.ErrorIs(t, err, config.ErrMissing)
	require.ErrorContains(t, err, "ACCOUNT_SID")
}

func TestSendSMS(t *testing.T) {
	c, api := newTestClient(t, account)
	r, err := c.SendSMS(context.Background(), "+4915112345678", "hi")
	require.NoError(t, err)
	require.Equal(t, Receipt{SID: "SM123", Status: "queued"}, r)

	require.Len(t, api.messages, 1)
	p := api.messages[0]
	require.Equal(t, "+4915112345678", *p.To)
	require.Equal(t, "+15550001111", *p.From)
	require.Equal(t, "hi", *p.Body)
}

func TestSendSMSErrors(t *testing.T) {
	c, api := newTestClient(t, account)
	_, err := c.SendSMS(context.Background(), " ", "hi")
	require.ErrorIs(t, err, ErrNoRecipient)

	api.err = errors.New("21211 invalid 'To'")
	_, err = c.SendSMS(context.Background(), "+1", "hi")
	require.ErrorContains(t, err, "invalid 'To'")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.SendSMS(ctx, "+1", "hi")
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, api.messages, 1)
}

func TestSendWhatsApp(t *testing.T) {
	cfg := account
	cfg.WhatsAppFrom = "whatsapp:+14155238886"
	c, api := newTestClient(t, cfg)

	_, err := c.SendWhatsApp(context.Background(), "+919800000000", "hello", "")
	require.NoError(t, err)
	_, err = c.SendWhatsApp(context.Background(), "whatsapp:+919800000000", "caption", "https://x.example/media/1")
	require.NoError(t, err)

	require.Len(t, api.messages, 2)
	text := api.messages[0]
	require.Equal(t, "whatsapp:+919800000000", *text.To)
	require.Equal(t, "whatsapp:+14155238886", *text.From)
	require.Nil(t, text.MediaUrl)

	image := api.messages[1]
	require.Equal(t, "whatsapp:+919800000000", *image.To)
	require.Equal(t, []string{"https://x.example/media/1"}, *image.MediaUrl)
	require.Equal(t, "caption", *image.Body)
}

func TestWhatsAppFallsBackToPhone(t *testing.T) {
	c, api := newTestClient(t, account)
	_, err := c.SendWhatsApp(context.Background(), "+1", "x", "")
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+15550001111", *api.messages[0].From)
}

func TestCall(t *testing.T) {
	c, api := newTestClient(t, account)
	r, err := c.Call(context.Background(), "+15551234567", "")
	require.NoError(t, err)
	require.Equal(t, "CA123", r.SID)

	require.Len(t, api.calls, 1)
	p := api.calls[0]
	require.Equal(t, "+15551234567", *p.To)
	require.Equal(t, "+15550001111", *p.From)
	require.Contains(t, *p.Twiml, "<Say>"+DefaultCallMessage+"</Say>")
	require.Contains(t, *p.Twiml, "<Response>")
}

func TestSayTwiMLEscapes(t *testing.T) {
	doc, err := SayTwiML("Tom & <b>Jerry</b>")
	require.NoError(t, err)
	require.NotContains(t, doc, "<b>")
	require.Contains(t, doc, "&amp;")
	require.Contains(t, doc, "&lt;b")
}
