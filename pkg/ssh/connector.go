package ssh

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/wentf9/commkit/utils"
)

const DefaultTimeout = 10 * time.Second

// Connector 负责创建 SSH 连接, 每次 Connect 返回一个独占的新连接, 不做缓存
type Connector struct {
	dialer    Dialer
	hostKeys  HostKeyPolicy
	timeout   time.Duration
	keepAlive time.Duration
	logger    *slog.Logger
}

type Option func(*Connector)

func WithDialer(d Dialer) Option {
	return func(c *Connector) { c.dialer = d }
}

func WithHostKeyPolicy(p HostKeyPolicy) Option {
	return func(c *Connector) { c.hostKeys = p }
}

// WithTimeout 设置拨号加握手的超时, <=0 表示不限时
func WithTimeout(d time.Duration) Option {
	return func(c *Connector) { c.timeout = d }
}

// WithKeepAlive 连接建立后按间隔发送心跳, 心跳失败会关闭连接
func WithKeepAlive(interval time.Duration) Option {
	return func(c *Connector) { c.keepAlive = interval }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Connector) { c.logger = l }
}

func NewConnector(opts ...Option) *Connector {
	c := &Connector{
		timeout: DefaultTimeout,
		logger:  utils.Logger.Component("ssh"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{}
	}
	return c
}

// Connect 拨号并完成 SSH 握手和认证
func (c *Connector) Connect(ctx context.Context, t Target) (*Client, error) {
	sshConfig, err := c.buildSSHConfig(t)
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	addr := t.Addr()
	c.logger.Debug("dialing", "addr", addr, "user", t.User)
	conn, err := c.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	// 握手阶段同样受 ctx 约束
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(dialCtx, func() { _ = conn.Close() })
	ncc, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if !stop() {
		if err == nil {
			ncc.Close()
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, dialCtx.Err())
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	client := newClient(ssh.NewClient(ncc, chans, reqs), t)
	if c.keepAlive > 0 {
		client.stopKeepAlive = StartKeepAlive(client.raw, c.keepAlive, func(err error) {
			c.logger.Warn("keepalive failed, connection closed", "addr", addr, "error", err)
		})
	}
	c.logger.Debug("connected", "addr", addr, "server_version", string(ncc.ServerVersion()))
	return client, nil
}

func (c *Connector) buildSSHConfig(t Target) (*ssh.ClientConfig, error) {
	auth, err := authFor(t)
	if err != nil {
		return nil, err
	}
	hostKeyCallback, err := c.hostKeys.Callback()
	if err != nil {
		return nil, err
	}
	if c.hostKeys.InsecureAcceptAny {
		c.logger.Warn("host key verification disabled", "host", t.Host)
	}
	return &ssh.ClientConfig{
		User:            t.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.timeout,
	}, nil
}
