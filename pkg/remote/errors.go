package remote

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownLabel = errors.New("unknown command label")
	ErrEmptyHost    = errors.New("host is required")
	ErrEmptyUser    = errors.New("username is required")
)

// ConnectError 建立连接阶段失败: 主机不可达、认证被拒、主机密钥校验失败或连接超时
// 通常可以重试
type ConnectError struct {
	Host string
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s (%s): %v", e.Host, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ExecError 连接已建立但命令未能执行完成
// 部分命令不是幂等的(adduser, mkdir), 不应自动重试
type ExecError struct {
	Host    string
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("run %q on %s: %v", e.Command, e.Host, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// CanceledError 调用方的 ctx 在 State 阶段到期或被取消
type CanceledError struct {
	State State
	Err   error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("canceled while %s: %v", e.State, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }
