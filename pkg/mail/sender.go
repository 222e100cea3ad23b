package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/wentf9/commkit/pkg/config"
	"github.com/wentf9/commkit/utils"
)

const DefaultTimeout = 15 * time.Second

var (
	ErrNoSender    = errors.New("sender address is required")
	ErrNoRecipient = errors.New("recipient address is required")
)

// Message 一封纯文本邮件
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Dialer 建立 SMTP 会话并投递邮件, *gomail.Client 满足该接口
type Dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// DialerFactory 按发件人创建 Dialer, 发件人即 SMTP 登录用户
type DialerFactory func(cfg config.Email, username string) (Dialer, error)

// Sender 通过 SMTP 发送邮件, 强制 STARTTLS, PLAIN 认证
type Sender struct {
	cfg     config.Email
	dial    DialerFactory
	logger  *slog.Logger
	timeout time.Duration
}

type Option func(*Sender)

func WithDialerFactory(f DialerFactory) Option {
	return func(s *Sender) { s.dial = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) { s.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Sender) { s.timeout = d }
}

func New(cfg config.Email, opts ...Option) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Sender{
		cfg:     cfg,
		dial:    NewSMTPDialer,
		logger:  utils.Logger.Component("mail"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewSMTPDialer 创建 go-mail 客户端
func NewSMTPDialer(cfg config.Email, username string) (Dialer, error) {
	return gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(DefaultTimeout),
	)
}

// Send 构造并投递邮件, 发件人同时作为 SMTP 用户名
func (s *Sender) Send(ctx context.Context, m Message) error {
	msg, err := Build(m)
	if err != nil {
		return err
	}
	client, err := s.dial(s.cfg, m.From)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail via %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	s.logger.Info("mail sent", "host", s.cfg.Host, "to", m.To)
	return nil
}

// Build 校验地址并生成 text/plain 邮件
func Build(m Message) (*gomail.Msg, error) {
	if m.From == "" {
		return nil, ErrNoSender
	}
	if m.To == "" {
		return nil, ErrNoRecipient
	}
	msg := gomail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	return msg, nil
}
