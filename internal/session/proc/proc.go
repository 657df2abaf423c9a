// Package proc provides the process-backed session transport. Each
// session is one long-lived child process spoken to over stdio with
// JSON-RPC framing.
package proc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/anchor/internal/session"
)

// Transport starts session processes and tracks the live ones. It
// implements session.Transport.
type Transport struct {
	mu       sync.Mutex
	sessions map[session.ID]*Session
}

// NewTransport creates an empty transport.
func NewTransport() *Transport {
	return &Transport{
		sessions: make(map[session.ID]*Session),
	}
}

// Ensure Transport implements session.Transport.
var _ session.Transport = (*Transport)(nil)

// Start launches the configured command and returns its session
// identifier. Once Start returns, the config's exit listeners are
// guaranteed to fire when the process terminates, by any cause.
func (t *Transport) Start(ctx context.Context, cfg session.Config) (session.ID, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return "", fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return "", fmt.Errorf("start process: %w", err)
	}

	s := &Session{
		id:            session.ID(uuid.NewString()),
		root:          cfg.Dir,
		settings:      cfg.Settings,
		cmd:           cmd,
		stdin:         stdin,
		conn:          NewConn(stdout, stdin),
		exitListeners: cfg.ExitListeners(),
		done:          make(chan struct{}),
	}
	s.conn.Start(ctx)

	t.mu.Lock()
	t.sessions[s.id] = s
	t.mu.Unlock()

	go t.monitor(s)
	return s.id, nil
}

// monitor waits for the process to exit, then removes the session and
// fires its exit listeners in registration order.
func (t *Transport) monitor(s *Session) {
	err := s.cmd.Wait()

	t.mu.Lock()
	delete(t.sessions, s.id)
	t.mu.Unlock()

	s.finish(err)
}

// Get resolves an identifier to a live session handle.
func (t *Transport) Get(id session.ID) (session.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[id]
	if !ok {
		return nil, false
	}
	return s, true
}

// Session is one running backend process. It implements session.Handle.
type Session struct {
	id       session.ID
	root     string
	settings string
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	conn     *Conn

	exitListeners []func()
	exitOnce      sync.Once

	mu      sync.Mutex
	exited  bool
	exitErr error
	done    chan struct{}
}

// Ensure Session implements session.Handle.
var _ session.Handle = (*Session)(nil)

// ID returns the session identifier.
func (s *Session) ID() session.ID { return s.id }

// Root returns the session's root directory.
func (s *Session) Root() string { return s.root }

// Alive reports whether the process is still running.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.exited
}

// PID returns the process ID, or zero before start.
func (s *Session) PID() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Settings returns the JSON settings blob the session was started with.
func (s *Session) Settings() string { return s.settings }

// ExitErr returns the process exit error, if any, once the session has
// terminated.
func (s *Session) ExitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Done returns a channel closed when the session has terminated and its
// exit listeners have run.
func (s *Session) Done() <-chan struct{} { return s.done }

// Notify sends a notification to the backend.
func (s *Session) Notify(method string, params any) error {
	return s.conn.Notify(method, params)
}

// Call sends a request to the backend and decodes its result.
func (s *Session) Call(ctx context.Context, method string, params, result any) error {
	return s.conn.Call(ctx, method, params, result)
}

// OnNotification registers a handler for backend notifications.
func (s *Session) OnNotification(method string, handler NotificationHandler) {
	s.conn.OnNotification(method, handler)
}

// Kill forcibly terminates the process. Exit listeners still fire via
// the monitor goroutine.
func (s *Session) Kill() error {
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}

// finish records termination and fires exit listeners exactly once, in
// registration order.
func (s *Session) finish(exitErr error) {
	s.exitOnce.Do(func() {
		s.mu.Lock()
		s.exited = true
		s.exitErr = exitErr
		s.mu.Unlock()

		s.conn.Close()
		s.stdin.Close()

		for _, fn := range s.exitListeners {
			fn()
		}
		close(s.done)
	})
}
