package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	ping "github.com/prometheus-community/pro-bing"
)

const (
	DefaultTCPTimeout = 5 * time.Second
	DefaultCount      = 4
)

var ErrEmptyHost = errors.New("host is empty")

// TCPResult 一次 TCP 端口探测的结果, 连接失败不视为错误
type TCPResult struct {
	Addr    string
	Open    bool
	Latency time.Duration
	Reason  string
}

// TCP 尝试建立 TCP 连接判断端口是否开放
func TCP(ctx context.Context, host string, port int, timeout time.Duration) (TCPResult, error) {
	if host == "" {
		return TCPResult{}, ErrEmptyHost
	}
	if timeout <= 0 {
		timeout = DefaultTCPTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", addr)
	res := TCPResult{Addr: addr, Latency: time.Since(start)}
	if err != nil {
		res.Reason = err.Error()
		return res, nil
	}
	conn.Close()
	res.Open = true
	return res, nil
}

// ICMPResult ping 统计
type ICMPResult struct {
	Addr      string
	Sent      int
	Received  int
	Loss      float64
	MinRtt    time.Duration
	AvgRtt    time.Duration
	MaxRtt    time.Duration
	StdDevRtt time.Duration
}

// ICMP 发送 count 个回显请求
// privileged 为 true 时使用 raw socket, Linux/macOS 上需要 root
func ICMP(ctx context.Context, host string, count int, privileged bool) (ICMPResult, error) {
	if host == "" {
		return ICMPResult{}, ErrEmptyHost
	}
	if count <= 0 {
		count = DefaultCount
	}
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return ICMPResult{}, fmt.Errorf("resolve %s: %w", host, err)
	}
	pinger.SetPrivileged(privileged)
	pinger.Count = count
	pinger.Interval = time.Second
	pinger.Timeout = time.Duration(count)*time.Second + time.Second

	if err := pinger.RunWithContext(ctx); err != nil {
		return ICMPResult{}, fmt.Errorf("ping %s: %w", host, err)
	}
	stats := pinger.Statistics()
	return ICMPResult{
		Addr:      stats.Addr,
		Sent:      stats.PacketsSent,
		Received:  stats.PacketsRecv,
		Loss:      stats.PacketLoss,
		MinRtt:    stats.MinRtt,
		AvgRtt:    stats.AvgRtt,
		MaxRtt:    stats.MaxRtt,
		StdDevRtt: stats.StdDevRtt,
	}, nil
}
