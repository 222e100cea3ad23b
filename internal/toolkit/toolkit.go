package toolkit

import (
	"context"

	"github.com/wentf9/commkit/pkg/config"
	"github.com/wentf9/commkit/pkg/mail"
	"github.com/wentf9/commkit/pkg/media"
	"github.com/wentf9/commkit/pkg/remote"
	"github.com/wentf9/commkit/pkg/ssh"
	"github.com/wentf9/commkit/pkg/telegram"
	"github.com/wentf9/commkit/pkg/twilio"
)

// Tool 界面上的六个动作
type Tool string

const (
	ToolSMS      Tool = "sms"
	ToolWhatsApp Tool = "whatsapp"
	ToolEmail    Tool = "email"
	ToolTelegram Tool = "telegram"
	ToolSSH      Tool = "ssh"
	ToolCall     Tool = "call"
)

// Tools 菜单顺序
var Tools = []Tool{ToolSMS, ToolWhatsApp, ToolEmail, ToolTelegram, ToolSSH, ToolCall}

type Messenger interface {
	SendSMS(ctx context.Context, to, body string) (twilio.Receipt, error)
	SendWhatsApp(ctx context.Context, to, body, mediaURL string) (twilio.Receipt, error)
	Call(ctx context.Context, to, message string) (twilio.Receipt, error)
}

type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

type Notifier interface {
	Send(ctx context.Context, text string) (telegram.Receipt, error)
}

type Runner interface {
	Run(ctx context.Context, req remote.Request) (remote.Result, error)
}

// Toolkit 各动作的实现, 按需构造
// 某个工具缺少配置只影响该工具, 不影响其它工具
type Toolkit struct {
	Messenger func() (Messenger, error)
	Mailer    func() (Mailer, error)
	Notifier  func() (Notifier, error)
	Runner    Runner
	Media     *media.Store
	BaseURL   string // 公开访问地址, 用于拼接图片 URL
}

// New 根据配置组装真实实现
func New(cfg config.Config) *Toolkit {
	return &Toolkit{
		Messenger: func() (Messenger, error) { return twilio.New(cfg.Twilio) },
		Mailer:    func() (Mailer, error) { return mail.New(cfg.Email) },
		Notifier:  func() (Notifier, error) { return telegram.New(cfg.Telegram) },
		Runner:    NewDispatcher(cfg.SSH),
		Media:     media.NewStore(media.DefaultTTL),
		BaseURL:   cfg.Dashboard.PublicBaseURL,
	}
}

// NewDispatcher 按 SSH 配置创建远程命令分发器
func NewDispatcher(cfg config.SSH, opts ...remote.Option) *remote.Dispatcher {
	connector := ssh.NewConnector(
		ssh.WithHostKeyPolicy(ssh.HostKeyPolicy{
			KnownHostsPath:    cfg.KnownHosts,
			InsecureAcceptAny: cfg.InsecureHostKey,
		}),
		ssh.WithTimeout(cfg.ConnectTimeout),
		ssh.WithKeepAlive(cfg.KeepAlive),
	)
	base := []remote.Option{
		remote.WithTimeout(cfg.CommandTimeout),
		remote.WithRawExtra(cfg.RawExtra),
	}
	return remote.New(remote.SSH(connector), append(base, opts...)...)
}
