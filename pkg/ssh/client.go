package ssh

import (
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/wentf9/commkit/pkg/executor"
)

// Client 一个已认证的 SSH 连接
type Client struct {
	raw           *ssh.Client
	target        Target
	stopKeepAlive func()

	closeOnce sync.Once
	closeErr  error
}

func newClient(raw *ssh.Client, t Target) *Client {
	t.Password = "" // 连接建立后不再保留密码
	t.Passphrase = ""
	return &Client{raw: raw, target: t}
}

// NewSession 打开一个命令通道
func (c *Client) NewSession() (executor.Session, error) {
	s, err := c.raw.NewSession()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close 关闭连接, 多次调用只生效一次
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.stopKeepAlive != nil {
			c.stopKeepAlive()
		}
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

// SSHClient 暴露底层的 ssh.Client
func (c *Client) SSHClient() *ssh.Client {
	return c.raw
}

func (c *Client) Target() Target {
	return c.target
}
