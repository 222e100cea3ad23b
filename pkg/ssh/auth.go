package ssh

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// AuthMethod 定义获取 SSH 认证方法的接口
type AuthMethod interface {
	Methods() ([]ssh.AuthMethod, error)
}

// PasswordAuth 密码认证, 同时应答 keyboard-interactive 的密码提示
type PasswordAuth struct {
	Password string
}

func (p PasswordAuth) Methods() ([]ssh.AuthMethod, error) {
	answer := func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = p.Password
		}
		return answers, nil
	}
	return []ssh.AuthMethod{
		ssh.Password(p.Password),
		ssh.KeyboardInteractive(answer),
	}, nil
}

// KeyAuth 私钥认证
type KeyAuth struct {
	Path       string
	Passphrase string
}

func (k KeyAuth) Methods() ([]ssh.AuthMethod, error) {
	keyData, err := os.ReadFile(expandHomeDir(k.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	var signer ssh.Signer
	if k.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(k.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyData)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, errors.New("private key is encrypted, passphrase required")
		}
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

// authFor 根据 Target 组合认证方式, 私钥优先于密码
func authFor(t Target) ([]ssh.AuthMethod, error) {
	var sources []AuthMethod
	if t.KeyPath != "" {
		sources = append(sources, KeyAuth{Path: t.KeyPath, Passphrase: t.Passphrase})
	}
	// 允许空密码, 目标主机是否接受由服务端决定
	if t.Password != "" || t.KeyPath == "" {
		sources = append(sources, PasswordAuth{Password: t.Password})
	}
	var methods []ssh.AuthMethod
	for _, s := range sources {
		m, err := s.Methods()
		if err != nil {
			return nil, err
		}
		methods = append(methods, m...)
	}
	return methods, nil
}

func expandHomeDir(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
