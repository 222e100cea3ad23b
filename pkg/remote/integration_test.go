package remote

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wentf9/commkit/internal/sshtest"
	"github.com/wentf9/commkit/pkg/ssh"
)

func newInsecureDispatcher(opts ...Option) *Dispatcher {
	connector := ssh.NewConnector(
		ssh.WithHostKeyPolicy(ssh.HostKeyPolicy{InsecureAcceptAny: true}),
		ssh.WithTimeout(2*time.Second),
	)
	return New(SSH(connector), opts...)
}

func TestIntegrationDateStdout(t *testing.T) {
	srv := sshtest.NewServer(t, "alice", "secret")
	srv.Handle("date", sshtest.Reply{Stdout: "ok"})

	res, err := newInsecureDispatcher().Run(context.Background(), Request{
		Host: srv.Addr, Username: "alice", Password: "secret", Label: "date",
	})
	require.NoError(t, err)
	require.Equal(t, "ok", res.Stdout)
	require.Equal(t, "", res.Stderr)
	require.Equal(t, 0, res.ExitStatus)
	require.Equal(t, []string{"date"}, srv.Execs())
}

func TestIntegrationStderrOnly(t *testing.T) {
	srv := sshtest.NewServer(t, "alice", "secret")
	srv.Handle("sudo adduser bob", sshtest.Reply{Stderr: "permission denied", ExitStatus: 1})

	res, err := newInsecureDispatcher().Run(context.Background(), Request{
		Host: srv.Addr, Username: "alice", Password: "secret", Label: "adduser", Extra: "bob",
	})
	require.NoError(t, err)
	require.Equal(t, "", res.Stdout)
	require.Equal(t, "permission denied", res.Stderr)
	require.Equal(t, 1, res.ExitStatus)
}

func TestIntegrationSequentialRunsAreIndependent(t *testing.T) {
	srv := sshtest.NewServer(t, "alice", "secret")
	srv.Handle("date", sshtest.Reply{Stdout: "ok"})
	d := newInsecureDispatcher()
	req := Request{Host: srv.Addr, Username: "alice", Password: "secret", Label: "date"}

	first, err := d.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := d.Run(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 2, srv.Connections())
	require.Equal(t, []string{"date", "date"}, srv.Execs())
}

func TestIntegrationAuthRejected(t *testing.T) {
	srv := sshtest.NewServer(t, "alice", "secret")
	var states []State
	d := newInsecureDispatcher(recordStates(&states))

	_, err := d.Run(context.Background(), Request{
		Host: srv.Addr, Username: "alice", Password: "wrong", Label: "date",
	})
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	require.NotContains(t, err.Error(), "wrong")
	require.Empty(t, srv.Execs())
	require.Equal(t, []State{StateConnecting, StateClosed}, states)
}

func TestIntegrationUnreachableHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	start := time.Now()
	res, err := newInsecureDispatcher().Run(context.Background(), Request{
		Host: addr, Username: "u", Label: "date",
	})
	require.Zero(t, res)
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestIntegrationUnknownHostKeyRejected(t *testing.T) {
	srv := sshtest.NewServer(t, "alice", "secret")
	srv.Handle("date", sshtest.Reply{Stdout: "ok"})

	emptyKnownHosts := filepath.Join(t.TempDir(), "known_hosts")
	other := sshtest.NewServer(t, "x", "y")
	other.WriteKnownHosts(t, emptyKnownHosts)

	strict := New(SSH(ssh.NewConnector(
		ssh.WithHostKeyPolicy(ssh.HostKeyPolicy{KnownHostsPath: emptyKnownHosts}),
		ssh.WithTimeout(2*time.Second),
	)))
	_, err := strict.Run(context.Background(), Request{
		Host: srv.Addr, Username: "alice", Password: "secret", Label: "date",
	})
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	require.Empty(t, srv.Execs())

	knownHosts := filepath.Join(t.TempDir(), "known_hosts")
	srv.WriteKnownHosts(t, knownHosts)
	verified := New(SSH(ssh.NewConnector(
		ssh.WithHostKeyPolicy(ssh.HostKeyPolicy{KnownHostsPath: knownHosts}),
		ssh.WithTimeout(2*time.Second),
	)))
	res, err := verified.Run(context.Background(), Request{
		Host: srv.Addr, Username: "alice", Password: "secret", Label: "date",
	})
	require.NoError(t, err)
	require.Equal(t, "ok", res.Stdout)
}

func TestIntegrationTimeoutIsCanceled(t *testing.T) {
	srv := sshtest.NewServer(t, "alice", "secret")
	srv.Handle("cal", sshtest.Reply{Stdout: "late", Delay: 5 * time.Second})

	d := newInsecureDispatcher(WithTimeout(300 * time.Millisecond))
	start := time.Now()
	res, err := d.Run(context.Background(), Request{
		Host: srv.Addr, Username: "alice", Password: "secret", Label: "cal",
	})
	require.Zero(t, res)
	var ce *CanceledError
	require.ErrorAs(t, err, &ce)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StateDraining, ce.State)
	require.Less(t, time.Since(start), 3*time.Second)
}
