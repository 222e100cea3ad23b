package ssh

import (
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// StartKeepAlive 定期发送 keepalive@openssh.com 请求
// 心跳失败时关闭连接并调用 fallback; 返回的函数用于停止心跳
func StartKeepAlive(client *ssh.Client, interval time.Duration, fallback func(err error)) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				client.Close()
				if fallback != nil {
					fallback(err)
				}
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
