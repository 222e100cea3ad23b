package executor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// pipeSession 输出由测试通过 io.Pipe 逐步写入
type pipeSession struct {
	outR, errR *io.PipeReader
	outW, errW *io.PipeWriter
	waitErr    error
	startErr   error

	mu      sync.Mutex
	signals []ssh.Signal
	closed  int
	done    chan struct{}
}

func newPipeSession() *pipeSession {
	s := &pipeSession{done: make(chan struct{})}
	s.outR, s.outW = io.Pipe()
	s.errR, s.errW = io.Pipe()
	return s
}

func (s *pipeSession) StdoutPipe() (io.Reader, error) { return s.outR, nil }
func (s *pipeSession) StderrPipe() (io.Reader, error) { return s.errR, nil }
func (s *pipeSession) Start(string) error             { return s.startErr }
func (s *pipeSession) Wait() error                    { return s.waitErr }

func (s *pipeSession) Signal(sig ssh.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

func (s *pipeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	if s.closed == 1 {
		s.outW.CloseWithError(io.EOF)
		s.errW.CloseWithError(io.EOF)
		close(s.done)
	}
	return nil
}

type singleTransport struct {
	session Session
	err     error
}

func (t *singleTransport) NewSession() (Session, error) { return t.session, t.err }
func (t *singleTransport) Close() error                 { return nil }

func TestRunDrainsBothStreamsConcurrently(t *testing.T) {
	s := newPipeSession()
	go func() {
		// 先写满 stderr 再写 stdout, 顺序读取会死锁
		_, _ = io.WriteString(s.errW, strings.Repeat("e", 1<<16))
		_ = s.errW.Close()
		_, _ = io.WriteString(s.outW, "out")
		_ = s.outW.Close()
	}()

	started := false
	e := NewSSHExecutor(&singleTransport{session: s}, WithStartedHook(func() { started = true }))
	out, err := e.Run(context.Background(), "cmd")
	require.NoError(t, err)
	require.True(t, started)
	require.Equal(t, "out", out.Stdout)
	require.Len(t, out.Stderr, 1<<16)
	require.Equal(t, 0, out.ExitStatus)
	require.GreaterOrEqual(t, s.closed, 1)
}

func TestRunMissingExitStatus(t *testing.T) {
	s := newPipeSession()
	s.waitErr = &ssh.ExitMissingError{}
	go func() {
		_ = s.outW.Close()
		_ = s.errW.Close()
	}()
	out, err := NewSSHExecutor(&singleTransport{session: s}).Run(context.Background(), "cmd")
	require.NoError(t, err)
	require.Equal(t, -1, out.ExitStatus)
}

func TestRunWaitError(t *testing.T) {
	s := newPipeSession()
	s.waitErr = errors.New("channel broken")
	go func() {
		_ = s.outW.Close()
		_ = s.errW.Close()
	}()
	_, err := NewSSHExecutor(&singleTransport{session: s}).Run(context.Background(), "cmd")
	require.ErrorContains(t, err, "channel broken")
}

func TestRunSessionAndStartErrors(t *testing.T) {
	_, err := NewSSHExecutor(&singleTransport{err: errors.New("refused")}).Run(context.Background(), "cmd")
	require.ErrorContains(t, err, "failed to open session")

	s := newPipeSession()
	s.startErr = errors.New("exec denied")
	started := false
	_, err = NewSSHExecutor(&singleTransport{session: s}, WithStartedHook(func() { started = true })).Run(context.Background(), "cmd")
	require.ErrorContains(t, err, "exec denied")
	require.False(t, started)
	require.Equal(t, 1, s.closed)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := &singleTransport{err: errors.New("must not be called")}
	_, err := NewSSHExecutor(tr).Run(ctx, "cmd")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunCanceledWhileDraining(t *testing.T) {
	s := newPipeSession()
	go func() { _, _ = io.WriteString(s.outW, "partial") }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	out, err := NewSSHExecutor(&singleTransport{session: s}).Run(ctx, "sleep 100")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, out.Stdout)

	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Equal(t, []ssh.Signal{ssh.SIGKILL}, s.signals)
}
