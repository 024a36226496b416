// Package terminal runs interactive shells in pseudo-terminals that UI clients
// attach to over WebSocket.
package terminal

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/creack/pty"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("terminal session not found")

// Broadcaster receives terminalOpened and terminalClosed notifications.
type Broadcaster interface {
	Broadcast(msg models.Message)
}

type Manager struct {
	shell string
	out   Broadcaster
	log   logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewManager(shell string, out Broadcaster, log logger.Logger) *Manager {
	return &Manager{
		shell:    shell,
		out:      out,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Open starts the shell in cwd and returns the new session's descriptor.
func (m *Manager) Open(name, cwd string) (models.TerminalInfo, error) {
	st, err := os.Stat(cwd)
	if err != nil {
		return models.TerminalInfo{}, fmt.Errorf("terminal cwd: %w", err)
	}
	if !st.IsDir() {
		return models.TerminalInfo{}, fmt.Errorf("terminal cwd %s: not a directory", cwd)
	}

	cmd := exec.Command(m.shell)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return models.TerminalInfo{}, fmt.Errorf("start %s: %w", m.shell, err)
	}

	info := models.TerminalInfo{
		ID:        uuid.New().String(),
		Name:      name,
		Cwd:       cwd,
		Pid:       cmd.Process.Pid,
		Timestamp: models.Now(),
	}
	s := newSession(info, cmd, ptmx)

	m.mu.Lock()
	m.sessions[info.ID] = s
	m.mu.Unlock()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		s.readLoop()
	}()
	go m.reap(s)

	m.log.Info("Terminal opened", "id", info.ID, "cwd", cwd, "pid", info.Pid)
	if m.out != nil {
		m.out.Broadcast(models.Message{Type: models.MsgTerminalOpened, Payload: info})
	}
	return info, nil
}

// reap waits for the shell to exit, drains its output and forgets the session.
func (m *Manager) reap(s *Session) {
	defer m.wg.Done()
	err := s.cmd.Wait()
	select {
	case <-s.readDone:
	case <-time.After(200 * time.Millisecond):
	}
	s.ptmx.Close()
	<-s.readDone
	s.finish()

	m.mu.Lock()
	delete(m.sessions, s.Info.ID)
	m.mu.Unlock()

	m.log.Info("Terminal exited", "id", s.Info.ID, "err", err)
	if m.out != nil {
		closed := s.Info
		closed.Timestamp = models.Now()
		m.out.Broadcast(models.Message{Type: models.MsgTerminalClosed, Payload: closed})
	}
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns live sessions, oldest first.
func (m *Manager) List() []models.TerminalInfo {
	m.mu.RLock()
	out := make([]models.TerminalInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.TerminalInfo) int {
		return cmp.Or(cmp.Compare(a.Timestamp, b.Timestamp), strings.Compare(a.ID, b.ID))
	})
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close kills the session's shell. The session is removed once it has exited.
func (m *Manager) Close(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill terminal %s: %w", id, err)
	}
	return nil
}

// CloseAll kills every shell and waits until all sessions are reaped.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		if err := m.Close(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.log.Warn("Failed to close terminal", "id", id, "err", err)
		}
	}
	m.wg.Wait()
}
