// Package sshtest 提供测试用的进程内 SSH 服务端, 按命令返回预设的输出
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Reply 服务端对某条命令的应答
type Reply struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	Delay      time.Duration // 输出前等待, 期间收到 KILL 信号则直接关闭通道
}

type Server struct {
	Addr    string
	HostKey ssh.PublicKey

	ln     net.Listener
	config *ssh.ServerConfig
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	replies  map[string]Reply
	fallback Reply
	execs    []string
	conns    int
	signals  []string
}

// NewServer 启动监听 127.0.0.1 随机端口的服务端, 只接受给定的用户名和密码
func NewServer(t testing.TB, user, password string) *Server {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &Server{
		Addr:    ln.Addr().String(),
		HostKey: signer.PublicKey(),
		ln:      ln,
		done:    make(chan struct{}),
		replies: make(map[string]Reply),
		fallback: Reply{
			Stderr:     "command not found\n",
			ExitStatus: 127,
		},
	}
	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, errors.New("permission denied")
		},
	}
	s.config.AddHostKey(signer)

	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Handle 设置命令 cmd 的应答
func (s *Server) Handle(cmd string, r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[cmd] = r
}

// Execs 返回收到的全部命令, 按顺序
func (s *Server) Execs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.execs...)
}

// Connections 返回完成认证的连接数
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

// Signals 返回收到的信号名
func (s *Server) Signals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signals...)
}

// WriteKnownHosts 把服务端主机密钥写入 known_hosts 文件
func (s *Server) WriteKnownHosts(t testing.TB, path string) {
	t.Helper()
	line := knownhosts.Line([]string{knownhosts.Normalize(s.Addr)}, s.HostKey)
	if err := os.WriteFile(path, []byte(line+"\n"), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}
}

func (s *Server) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.ln.Close()
	})
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(raw net.Conn) {
	sc, chans, reqs, err := ssh.NewServerConn(raw, s.config)
	if err != nil {
		_ = raw.Close()
		return
	}
	defer sc.Close()
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()

	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "only session channels")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, chReqs)
	}
}

func (s *Server) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	killed := make(chan struct{})
	var killOnce sync.Once
	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			go s.exec(ch, payload.Command, killed)
		case "signal":
			var payload struct{ Signal string }
			_ = ssh.Unmarshal(req.Payload, &payload)
			s.mu.Lock()
			s.signals = append(s.signals, payload.Signal)
			s.mu.Unlock()
			killOnce.Do(func() { close(killed) })
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
	killOnce.Do(func() { close(killed) })
}

func (s *Server) exec(ch ssh.Channel, cmd string, killed <-chan struct{}) {
	defer ch.Close()
	s.mu.Lock()
	s.execs = append(s.execs, cmd)
	reply, ok := s.replies[cmd]
	if !ok {
		reply = s.fallback
	}
	s.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-killed:
			return
		case <-s.done:
			return
		}
	}
	_, _ = io.WriteString(ch, reply.Stdout)
	_, _ = io.WriteString(ch.Stderr(), reply.Stderr)
	status := struct{ Status uint32 }{uint32(reply.ExitStatus)}
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
}
