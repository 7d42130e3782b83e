// Package fanout implements stage A's accept loop and live subscriber set:
// accept, garbage-collect dead sessions, and broadcast every generated
// frame to everyone still connected.
package fanout

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/session"
)

// Server accepts stage A subscribers and fans out every generated frame to
// the live session set.
type Server struct {
	listener  net.Listener
	logger    *slog.Logger
	watermark int

	mu       sync.Mutex
	sessions []*session.Session
}

// Listen binds addr (nominally "0.0.0.0:9001") and returns a Server ready
// to Serve.
func Listen(addr string, watermark int, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("fanout: listen %s: %w", addr, err)
	}
	return &Server{listener: ln, logger: logger, watermark: watermark}, nil
}

// Addr returns the server's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until the listener is closed or ctx-driven
// shutdown closes it out from under Accept.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}

		sess := session.New(conn, s.watermark, s.logger)

		s.mu.Lock()
		s.sessions = gcDeadSessions(s.sessions)
		s.sessions = append(s.sessions, sess)
		obs.SessionsActive.Set(float64(len(s.sessions)))
		s.mu.Unlock()

		sess.Start()
		s.logger.Debug("fanout: accepted subscriber", "session", sess.ID, "remote", conn.RemoteAddr())
	}
}

// gcDeadSessions drops entries whose socket has already failed, reusing the
// backing array.
func gcDeadSessions(sessions []*session.Session) []*session.Session {
	alive := sessions[:0]
	for _, sess := range sessions {
		if !sess.Closed() {
			alive = append(alive, sess)
		}
	}
	return alive
}

// Broadcast enqueues signedBody on every live session, in the order
// Broadcast itself is called. The mutex protects only the session set — it
// is never held across a socket write, since Deliver is non-blocking.
func (s *Server) Broadcast(signedBody string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.Deliver(signedBody)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}
