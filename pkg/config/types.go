package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissing 表示某个工具所需的配置项为空
var ErrMissing = errors.New("missing configuration")

// Config 是进程启动时加载一次的只读配置, 由调用方显式传递给各组件
// env 标签对应 .env / 环境变量名, 环境变量优先于配置文件
type Config struct {
	Twilio    Twilio    `yaml:"twilio"`
	Email     Email     `yaml:"email"`
	Telegram  Telegram  `yaml:"telegram"`
	SSH       SSH       `yaml:"ssh"`
	Dashboard Dashboard `yaml:"dashboard"`
}

// Twilio 短信/语音/WhatsApp 共用的账号
type Twilio struct {
	AccountSID   string `yaml:"account_sid" env:"ACCOUNT_SID"`
	AuthToken    string `yaml:"auth_token" env:"AUTH_TOKEN"`
	Phone        string `yaml:"phone" env:"TWILIO_PHONE"`
	WhatsAppFrom string `yaml:"whatsapp_from,omitempty" env:"TWILIO_WHATSAPP_FROM"` // 为空时使用 Phone
}

type Email struct {
	Password string `yaml:"password" env:"EMAIL_PASSWORD"`
	Host     string `yaml:"host" env:"SMTP_HOST" default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env:"SMTP_PORT" default:"587"`
}

type Telegram struct {
	Token       string `yaml:"token" env:"TELEGRAM_TOKEN"`
	ChatID      string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"` // 数字 ID 或 @channel
	APIEndpoint string `yaml:"api_endpoint,omitempty" env:"TELEGRAM_API_ENDPOINT"`
}

type SSH struct {
	KnownHosts      string        `yaml:"known_hosts,omitempty" env:"SSH_KNOWN_HOSTS"`
	InsecureHostKey bool          `yaml:"insecure_host_key" env:"SSH_INSECURE_HOST_KEY"` // 接受任意主机密钥, 仅限可信网络测试
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"SSH_CONNECT_TIMEOUT" default:"10s"`
	CommandTimeout  time.Duration `yaml:"command_timeout" env:"SSH_COMMAND_TIMEOUT"` // 0 表示不限时
	RawExtra        bool          `yaml:"raw_extra" env:"SSH_RAW_EXTRA"`             // extra 不加引号直接拼接
	KeepAlive       time.Duration `yaml:"keepalive" env:"SSH_KEEPALIVE"`             // 0 关闭心跳
}

type Dashboard struct {
	ListenAddr    string `yaml:"listen_addr" env:"LISTEN_ADDR" default:"127.0.0.1:8501"`
	PublicBaseURL string `yaml:"public_base_url,omitempty" env:"PUBLIC_BASE_URL"`
}

func (t Twilio) Validate() error {
	return requireAll(
		field{"ACCOUNT_SID", t.AccountSID},
		field{"AUTH_TOKEN", t.AuthToken},
		field{"TWILIO_PHONE", t.Phone},
	)
}

// Sender 返回 WhatsApp 发送方号码
func (t Twilio) Sender() string {
	if t.WhatsAppFrom != "" {
		return t.WhatsAppFrom
	}
	return t.Phone
}

func (e Email) Validate() error {
	return requireAll(
		field{"EMAIL_PASSWORD", e.Password},
		field{"SMTP_HOST", e.Host},
	)
}

func (t Telegram) Validate() error {
	return requireAll(
		field{"TELEGRAM_TOKEN", t.Token},
		field{"TELEGRAM_CHAT_ID", t.ChatID},
	)
}

type field struct {
	name  string
	value string
}

func requireAll(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissing, f.name)
		}
	}
	return nil
}
