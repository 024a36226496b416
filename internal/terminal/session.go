package terminal

import (
	"errors"
	"os"
	"os/exec"
	"sync"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/creack/pty"
)

const (
	scrollbackSize = 64 * 1024
	subscriberBuf  = 256
)

var ErrSessionClosed = errors.New("terminal session closed")

// Session is a shell running in a pseudo-terminal. Output is kept in a bounded
// scrollback and fanned out to every attached subscriber.
type Session struct {
	Info models.TerminalInfo

	cmd  *exec.Cmd
	ptmx *os.File

	mu         sync.Mutex
	scrollback []byte
	subs       map[int]chan []byte
	nextSub    int
	closed     bool

	readDone chan struct{}
	done     chan struct{}
}

func newSession(info models.TerminalInfo, cmd *exec.Cmd, ptmx *os.File) *Session {
	return &Session{
		Info:     info,
		cmd:      cmd,
		ptmx:     ptmx,
		subs:     make(map[int]chan []byte),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Done is closed after the shell has exited and all output was delivered.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Write(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, ErrSessionClosed
	default:
	}
	return s.ptmx.Write(p)
}

func (s *Session) Resize(rows, cols uint16) error {
	if rows == 0 || cols == 0 {
		return nil
	}
	return pty.Setsize(s.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// Subscribe returns a channel that first replays the scrollback and then
// receives live output. The channel is closed when the session ends or the
// returned cancel func is called. A subscriber that falls behind loses chunks.
func (s *Session) Subscribe() (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan []byte, subscriberBuf)
	if len(s.scrollback) > 0 {
		ch <- append([]byte(nil), s.scrollback...)
	}
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *Session) readLoop() {
	defer close(s.readDone)
	buf := make([]byte, 32*1024)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.publish(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) publish(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollback = append(s.scrollback, chunk...)
	if over := len(s.scrollback) - scrollbackSize; over > 0 {
		s.scrollback = append(s.scrollback[:0], s.scrollback[over:]...)
	}
	for _, ch := range s.subs {
		select {
		case ch <- chunk:
		default:
		}
	}
}

// finish closes every subscriber; called once by the reaper.
func (s *Session) finish() {
	s.mu.Lock()
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	close(s.done)
}
