package remote

import (
	"context"
	"io"
	"strings"
	"sync"

	gossh "golang.org/x/crypto/ssh"

	"github.com/wentf9/commkit/pkg/executor"
	"github.com/wentf9/commkit/pkg/ssh"
)

type fakeSession struct {
	stdout, stderr string
	startErr       error
	waitErr        error

	mu      sync.Mutex
	command string
	closed  int
}

func (s *fakeSession) StdoutPipe() (io.Reader, error) { return strings.NewReader(s.stdout), nil }
func (s *fakeSession) StderrPipe() (io.Reader, error) { return strings.NewReader(s.stderr), nil }
func (s *fakeSession) Start(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.command = cmd
	return s.startErr
}
func (s *fakeSession) Wait() error                   { return s.waitErr }
func (s *fakeSession) Signal(sig gossh.Signal) error { return nil }
func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeTransport struct {
	session    *fakeSession
	sessionErr error

	mu       sync.Mutex
	sessions int
	closed   int
}

func (t *fakeTransport) NewSession() (executor.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions++
	if t.sessionErr != nil {
		return nil, t.sessionErr
	}
	return t.session, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

type fakeConnector struct {
	transport  *fakeTransport
	connectErr error
	targets    []ssh.Target
}

func (c *fakeConnector) Connect(ctx context.Context, t ssh.Target) (executor.Transport, error) {
	c.targets = append(c.targets, t)
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	return c.transport, nil
}
