package remote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wentf9/commkit/pkg/executor"
	"github.com/wentf9/commkit/pkg/ssh"
	"github.com/wentf9/commkit/utils"
)

// Connector 为一次调用建立独占连接
type Connector interface {
	Connect(ctx context.Context, t ssh.Target) (executor.Transport, error)
}

type sshConnector struct {
	c *ssh.Connector
}

// SSH 把 *ssh.Connector 适配为 Connector
func SSH(c *ssh.Connector) Connector {
	return sshConnector{c: c}
}

func (s sshConnector) Connect(ctx context.Context, t ssh.Target) (executor.Transport, error) {
	client, err := s.c.Connect(ctx, t)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Request 一次 "Run Command" 的输入
type Request struct {
	Host       string
	Port       int
	Username   string
	Password   string // 不校验, 可以为空
	KeyPath    string
	Passphrase string
	Label      string
	Extra      string // 仅 adduser/mkdir/gedit 使用
}

// Result 命令执行结果, Stdout 和 Stderr 可能同时非空
type Result struct {
	Command    string
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Dispatcher 远程命令分发器, 每次 Run 建立一个连接、执行一条命令、关闭连接
type Dispatcher struct {
	connector Connector
	timeout   time.Duration
	rawExtra  bool
	observer  func(from, to State)
	logger    *slog.Logger
}

type Option func(*Dispatcher)

// WithTimeout 限制整次调用(连接+执行)的时长, <=0 表示不限时
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithRawExtra 把 extra 原样拼接进命令, 存在命令注入风险, 仅用于兼容旧行为
func WithRawExtra(raw bool) Option {
	return func(disp *Dispatcher) { disp.rawExtra = raw }
}

// WithObserver 每次状态迁移时回调
func WithObserver(fn func(from, to State)) Option {
	return func(disp *Dispatcher) { disp.observer = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(disp *Dispatcher) { disp.logger = l }
}

func New(connector Connector, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		connector: connector,
		logger:    utils.Logger.Component("remote"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve 返回 req 最终会执行的命令
func (d *Dispatcher) Resolve(req Request) (string, error) {
	spec, err := validate(req)
	if err != nil {
		return "", err
	}
	return d.resolve(spec, req.Extra), nil
}

func (d *Dispatcher) resolve(spec CommandSpec, extra string) string {
	if d.rawExtra {
		return spec.Resolve(extra)
	}
	return spec.ResolveQuoted(extra)
}

// Run 连接目标主机, 执行标签对应的命令并分别返回 stdout 和 stderr
// 任何返回路径上连接都会在返回前关闭
// 错误只会是校验错误、*ConnectError、*ExecError 或 *CanceledError 之一
func (d *Dispatcher) Run(ctx context.Context, req Request) (Result, error) {
	spec, err := validate(req)
	if err != nil {
		return Result{}, err
	}
	command := d.resolve(spec, req.Extra)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	inv := &invocation{d: d, state: StateIdle, log: d.logger.With("host", req.Host, "label", req.Label)}
	defer inv.enter(StateClosed)

	target := ssh.Target{
		Host:       req.Host,
		Port:       req.Port,
		User:       req.Username,
		Password:   req.Password,
		KeyPath:    req.KeyPath,
		Passphrase: req.Passphrase,
	}

	inv.enter(StateConnecting)
	transport, err := d.connector.Connect(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, &CanceledError{State: StateConnecting, Err: ctx.Err()}
		}
		return Result{}, &ConnectError{Host: req.Host, Addr: target.Addr(), Err: err}
	}
	defer func() {
		if err := transport.Close(); err != nil {
			inv.log.Debug("close connection", "error", err)
		}
	}()
	inv.enter(StateConnected)

	inv.enter(StateExecuting)
	exec := executor.NewSSHExecutor(transport, executor.WithStartedHook(func() {
		inv.enter(StateDraining)
	}))
	out, err := exec.Run(ctx, command)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, &CanceledError{State: inv.state, Err: ctx.Err()}
		}
		return Result{}, &ExecError{Host: req.Host, Command: command, Err: err}
	}
	inv.log.Debug("command finished", "exit_status", out.ExitStatus,
		"stdout_bytes", len(out.Stdout), "stderr_bytes", len(out.Stderr))

	return Result{
		Command:    command,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ExitStatus: out.ExitStatus,
	}, nil
}

type invocation struct {
	d     *Dispatcher
	state State
	log   *slog.Logger
}

func (inv *invocation) enter(next State) {
	prev := inv.state
	inv.state = next
	inv.log.Debug("state", "from", prev.String(), "to", next.String())
	if inv.d.observer != nil {
		inv.d.observer(prev, next)
	}
}

func validate(req Request) (CommandSpec, error) {
	if strings.TrimSpace(req.Host) == "" {
		return CommandSpec{}, ErrEmptyHost
	}
	if strings.TrimSpace(req.Username) == "" {
		return CommandSpec{}, ErrEmptyUser
	}
	spec, ok := Lookup(req.Label)
	if !ok {
		return CommandSpec{}, fmt.Errorf("%w: %q", ErrUnknownLabel, req.Label)
	}
	return spec, nil
}
