package simulate

import (
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"

	"github.com/MoleSir/reda/internal/wire"
	"github.com/MoleSir/reda/pkg/analysis"
	"github.com/MoleSir/reda/pkg/probe"
)

// Server drives a simulator over the framed wire protocol: either a
// child reda-spice-server process on stdio, or a TCP address where one
// is listening. The connection is reused across loads and runs.
type Server struct {
	mu      sync.Mutex
	conn    io.ReadWriteCloser
	proc    *exec.Cmd
	loaded  bool
	running bool
	status  func(line string)
}

// StartServer spawns path as a child server process speaking the
// protocol on its stdio.
func StartServer(path string, args ...string) (*Server, error) {
	cmd := exec.Command(path, append(args, "--stdio")...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrEngineUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrEngineUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrEngineUnavailable, path, err)
	}
	return &Server{conn: &procConn{in: stdin, out: stdout}, proc: cmd}, nil
}

// DialServer connects to a server listening on a TCP address.
func DialServer(addr string) (*Server, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrEngineUnavailable, addr, err)
	}
	return &Server{conn: conn}, nil
}

// NewServerConn wraps an established connection. Used when the
// transport is managed elsewhere.
func NewServerConn(conn io.ReadWriteCloser) *Server {
	return &Server{conn: conn}
}

// OnStatus registers a callback for server status lines. It is invoked
// from the reader goroutine during a run.
func (s *Server) OnStatus(fn func(line string)) {
	s.mu.Lock()
	s.status = fn
	s.mu.Unlock()
}

func (s *Server) Load(netlist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrEngineUnavailable
	}
	if s.running {
		return ErrBusy
	}

	if err := wire.WriteMsg(s.conn, &wire.Message{Type: wire.TypeLoad, Netlist: netlist}); err != nil {
		s.teardownLocked()
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	for {
		msg, err := wire.ReadMsg(s.conn)
		if err != nil {
			s.teardownLocked()
			return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		switch msg.Type {
		case wire.TypeStatus:
			if s.status != nil {
				s.status(msg.Text)
			}
		case wire.TypeDone:
			s.loaded = true
			return nil
		case wire.TypeError:
			return &NetlistError{Message: msg.Text}
		default:
			s.teardownLocked()
			return fmt.Errorf("%w: unexpected %q response to load", ErrEngineUnavailable, msg.Type)
		}
	}
}

func (s *Server) Run(ctx context.Context, cmd analysis.Command) (*probe.Result, error) {
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return nil, ErrEngineUnavailable
	}
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	conn := s.conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := wire.WriteMsg(conn, &wire.Message{Type: wire.TypeRun, Command: cmd.ControlLine()}); err != nil {
		s.teardown()
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	type outcome struct {
		res *probe.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := s.collect(conn)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		// Killing the transport is the only abort the protocol has;
		// the reader unblocks on the closed connection.
		s.teardown()
		<-ch
		return nil, ErrTimeout
	}
}

// collect reads one run's responses until the terminal done or error.
func (s *Server) collect(conn io.Reader) (*probe.Result, error) {
	var vecs []rawVector
	for {
		msg, err := wire.ReadMsg(conn)
		if err != nil {
			s.teardown()
			return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		switch msg.Type {
		case wire.TypeStatus:
			s.mu.Lock()
			fn := s.status
			s.mu.Unlock()
			if fn != nil {
				fn(msg.Text)
			}
		case wire.TypeVector:
			vecs = append(vecs, rawVector{name: msg.Name, values: msg.Values})
		case wire.TypeDone:
			return assemble(vecs)
		case wire.TypeError:
			partial, _ := assemble(vecs)
			return nil, &RunError{Message: msg.Text, Partial: partial}
		default:
			s.teardown()
			return nil, fmt.Errorf("%w: unexpected %q response to run", ErrEngineUnavailable, msg.Type)
		}
	}
}

func (s *Server) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Server) teardownLocked() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.proc != nil {
		s.proc.Process.Kill()
		s.proc.Wait()
		s.proc = nil
	}
	s.loaded = false
}

// Close shuts the connection down and reaps the child process, if any.
func (s *Server) Close() error {
	s.teardown()
	return nil
}

// procConn joins a child process's stdin and stdout into one stream.
type procConn struct {
	in  io.WriteCloser
	out io.ReadCloser
}

func (c *procConn) Read(p []byte) (int, error)  { return c.out.Read(p) }
func (c *procConn) Write(p []byte) (int, error) { return c.in.Write(p) }

func (c *procConn) Close() error {
	c.in.Close()
	return c.out.Close()
}
