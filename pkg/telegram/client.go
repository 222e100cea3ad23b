package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wentf9/commkit/pkg/config"
	"github.com/wentf9/commkit/utils"
)

const DefaultTimeout = 15 * time.Second

var (
	ErrEmptyText = errors.New("message text is empty")
	ErrBadChatID = errors.New("chat id must be numeric or @channel")
)

// Receipt Telegram 返回的消息 ID 与实际投递的会话
type Receipt struct {
	MessageID int
	ChatID    int64
}

// Client 通过 Bot API 向固定会话发送文本
type Client struct {
	token    string
	endpoint string
	chat     chatRef
	http     *http.Client
	logger   *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg config.Telegram, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chat, err := parseChat(cfg.ChatID)
	if err != nil {
		return nil, err
	}
	c := &Client{
		token:    cfg.Token,
		endpoint: cfg.APIEndpoint,
		chat:     chat,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   utils.Logger.Component("telegram"),
	}
	if c.endpoint == "" {
		c.endpoint = tgbotapi.APIEndpoint
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send 调用 sendMessage, 文本作为表单参数提交
func (c *Client) Send(ctx context.Context, text string) (Receipt, error) {
	if strings.TrimSpace(text) == "" {
		return Receipt{}, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, ctxClient{ctx: ctx, client: c.http})
	if err != nil {
		return Receipt{}, fmt.Errorf("telegram getMe: %w", err)
	}

	msg, err := bot.Send(c.chat.message(text))
	if err != nil {
		return Receipt{}, fmt.Errorf("telegram sendMessage: %w", err)
	}
	r := Receipt{MessageID: msg.MessageID}
	if msg.Chat != nil {
		r.ChatID = msg.Chat.ID
	}
	c.logger.Info("telegram message sent", "bot", bot.Self.UserName, "message_id", r.MessageID)
	return r, nil
}

// chatRef 数字会话 ID 或 @频道名
type chatRef struct {
	id      int64
	channel string
}

func parseChat(s string) (chatRef, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "@") && len(s) > 1 {
		return chatRef{channel: s}, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return chatRef{}, fmt.Errorf("%w: %q", ErrBadChatID, s)
	}
	return chatRef{id: id}, nil
}

func (r chatRef) message(text string) tgbotapi.MessageConfig {
	if r.channel != "" {
		return tgbotapi.NewMessageToChannel(r.channel, text)
	}
	return tgbotapi.NewMessage(r.id, text)
}

// ctxClient 让 Bot API 请求受调用方 ctx 控制
type ctxClient struct {
	ctx    context.Context
	client *http.Client
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
