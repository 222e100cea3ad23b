package ssh

import (
	"context"
	"net"
	"strconv"
	"strings"
)

// Dialer 建立到目标地址的底层网络连接
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

const DefaultPort = 22

// Target 描述一次连接的目标主机与凭据
type Target struct {
	Host       string // IP 或域名, 可带 :port
	Port       int    // 0 表示使用 Host 中的端口或 22
	User       string
	Password   string
	KeyPath    string
	Passphrase string
}

// Addr 返回 host:port 形式的拨号地址
// Port 非 0 时优先于 Host 中自带的端口
func (t Target) Addr() string {
	host := strings.Trim(t.Host, "[]")
	port := strconv.Itoa(DefaultPort)
	if h, p, err := net.SplitHostPort(t.Host); err == nil {
		host, port = h, p
	}
	if t.Port != 0 {
		port = strconv.Itoa(t.Port)
	}
	return net.JoinHostPort(host, port)
}
