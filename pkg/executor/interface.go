package executor

import (
	"context"
	"io"

	"golang.org/x/crypto/ssh"
)

// Session 一次远程命令执行所需的最小能力, *ssh.Session 直接满足该接口
type Session interface {
	StdoutPipe() (io.Reader, error)
	StderrPipe() (io.Reader, error)
	Start(cmd string) error
	Wait() error
	Signal(sig ssh.Signal) error
	Close() error
}

// Transport 已建立的连接, 可以打开会话, 用完后关闭
type Transport interface {
	NewSession() (Session, error)
	Close() error
}

// Output 命令的标准输出与标准错误分别保存
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int // 远端未返回退出码时为 -1
}

type Executor interface {
	// Run 执行一条命令, 直到两路输出都读取完毕
	Run(ctx context.Context, cmd string) (Output, error)
}
