package ssh

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var ErrNoKnownHosts = errors.New("host key verification requires a known_hosts file")

// HostKeyPolicy 决定如何校验远端主机密钥
// 默认按 known_hosts 校验; InsecureAcceptAny 接受任意密钥, 等同关闭中间人防护
type HostKeyPolicy struct {
	KnownHostsPath    string
	InsecureAcceptAny bool
}

func (p HostKeyPolicy) Callback() (ssh.HostKeyCallback, error) {
	if p.InsecureAcceptAny {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if p.KnownHostsPath == "" {
		return nil, ErrNoKnownHosts
	}
	cb, err := knownhosts.New(expandHomeDir(p.KnownHostsPath))
	if err != nil {
		return nil, fmt.Errorf("known_hosts %s: %w", p.KnownHostsPath, err)
	}
	return cb, nil
}

// IsHostKeyError 判断握手失败是否由主机密钥未知或不匹配引起
func IsHostKeyError(err error) bool {
	var keyErr *knownhosts.KeyError
	return errors.As(err, &keyErr)
}
