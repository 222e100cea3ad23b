package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

// SSHExecutor 在 Transport 上为每条命令打开一个新会话
type SSHExecutor struct {
	transport Transport
	onStarted func()
}

type Option func(*SSHExecutor)

// WithStartedHook 命令启动成功、开始读取输出前调用
func WithStartedHook(fn func()) Option {
	return func(e *SSHExecutor) { e.onStarted = fn }
}

func NewSSHExecutor(t Transport, opts ...Option) *SSHExecutor {
	e := &SSHExecutor{transport: t}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 执行命令, stdout 和 stderr 并发读取到各自的缓冲区
// 远端非零退出码不视为错误, 记录在 Output.ExitStatus
// ctx 取消时向远端进程发送 KILL 并关闭会话, 不返回部分输出
func (e *SSHExecutor) Run(ctx context.Context, cmd string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	session, err := e.transport.NewSession()
	if err != nil {
		return Output{}, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return Output{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return Output{}, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := session.Start(cmd); err != nil {
		return Output{}, fmt.Errorf("failed to start command: %w", err)
	}
	if e.onStarted != nil {
		e.onStarted()
	}

	stop := context.AfterFunc(ctx, func() {
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
	})
	defer stop()

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	drainErr := g.Wait()
	waitErr := session.Wait()

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if drainErr != nil {
		return Output{}, fmt.Errorf("failed to read output: %w", drainErr)
	}

	out := Output{Stdout: outBuf.String(), Stderr: errBuf.String()}
	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		out.ExitStatus = exitErr.ExitStatus()
	case errors.As(waitErr, &missingErr):
		out.ExitStatus = -1
	default:
		return Output{}, fmt.Errorf("failed to run command: %w", waitErr)
	}
	return out, nil
}
