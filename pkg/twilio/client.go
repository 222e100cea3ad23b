package twilio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"github.com/wentf9/commkit/pkg/config"
	"github.com/wentf9/commkit/utils"
)

const (
	DefaultCallMessage = "Hello! This is a Go-powered call."
	whatsAppPrefix     = "whatsapp:"
)

var ErrNoRecipient = errors.New("recipient number is required")

// API Twilio REST 中本包用到的部分, *openapi.ApiService 满足该接口
type API interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

// Receipt Twilio 返回的资源标识与状态
type Receipt struct {
	SID    string
	Status string
}

// Client 短信、语音、WhatsApp 共用一个账号
type Client struct {
	api    API
	from   string
	waFrom string
	logger *slog.Logger
}

type Option func(*Client)

func WithAPI(api API) Option {
	return func(c *Client) { c.api = api }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New 校验账号配置并创建 REST 客户端
func New(cfg config.Twilio, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		from:   cfg.Phone,
		waFrom: cfg.Sender(),
		logger: utils.Logger.Component("twilio"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		c.api = rest.Api
	}
	return c, nil
}

// SendSMS 从 TWILIO_PHONE 发送短信
func (c *Client) SendSMS(ctx context.Context, to, body string) (Receipt, error) {
	if err := check(ctx, to); err != nil {
		return Receipt{}, err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	msg, err := c.api.CreateMessage(params)
	if err != nil {
		return Receipt{}, fmt.Errorf("send sms: %w", err)
	}
	r := Receipt{SID: deref(msg.Sid), Status: deref(msg.Status)}
	c.logger.Info("sms sent", "sid", r.SID, "status", r.Status)
	return r, nil
}

// SendWhatsApp 通过 WhatsApp 渠道发送文本, mediaURL 非空时附带图片, body 作为说明文字
func (c *Client) SendWhatsApp(ctx context.Context, to, body, mediaURL string) (Receipt, error) {
	if err := check(ctx, to); err != nil {
		return Receipt{}, err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(WhatsAppAddress(to))
	params.SetFrom(WhatsAppAddress(c.waFrom))
	if body != "" {
		params.SetBody(body)
	}
	if mediaURL != "" {
		params.SetMediaUrl([]string{mediaURL})
	}

	msg, err := c.api.CreateMessage(params)
	if err != nil {
		return Receipt{}, fmt.Errorf("send whatsapp: %w", err)
	}
	r := Receipt{SID: deref(msg.Sid), Status: deref(msg.Status)}
	c.logger.Info("whatsapp sent", "sid", r.SID, "status", r.Status, "media", mediaURL != "")
	return r, nil
}

// Call 发起语音呼叫, 接通后朗读 message, 为空时使用默认文案
func (c *Client) Call(ctx context.Context, to, message string) (Receipt, error) {
	if err := check(ctx, to); err != nil {
		return Receipt{}, err
	}
	doc, err := SayTwiML(message)
	if err != nil {
		return Receipt{}, err
	}
	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetTwiml(doc)

	call, err := c.api.CreateCall(params)
	if err != nil {
		return Receipt{}, fmt.Errorf("create call: %w", err)
	}
	r := Receipt{SID: deref(call.Sid), Status: deref(call.Status)}
	c.logger.Info("call started", "sid", r.SID, "status", r.Status)
	return r, nil
}

// SayTwiML 生成 <Response><Say>message</Say></Response>, 文本经过 XML 转义
func SayTwiML(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		message = DefaultCallMessage
	}
	doc, err := twiml.Voice([]twiml.Element{&twiml.VoiceSay{Message: message}})
	if err != nil {
		return "", fmt.Errorf("build twiml: %w", err)
	}
	return doc, nil
}

// WhatsAppAddress 为号码加上 whatsapp: 前缀, 已有前缀时原样返回
func WhatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}

func check(ctx context.Context, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
