// Package session implements the per-subscriber ordered, non-blocking,
// drop-on-slow-consumer frame delivery path for stage A.
//
// Per spec, each session needs a serialization boundary so enqueue,
// write-completion, and state mutation never race. This implementation
// uses the mailbox alternative named in the design notes: a single
// goroutine per session owns the socket and drains a buffered channel,
// so FIFO order and single-flight writes fall out of the channel's own
// semantics instead of an explicit busy flag.
package session

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/marketpulse/tickmesh/internal/obs"
)

// Session owns one live TCP socket and its FIFO of queued outbound frames.
type Session struct {
	ID     uuid.UUID
	conn   net.Conn
	logger *slog.Logger
	queue  chan string
	closed atomic.Bool
	done   chan struct{}
}

// New builds a Session with a bounded outbound queue. watermark is the
// high-watermark past which newly delivered frames are dropped whole —
// spec.md's queue is unbounded in principle, but this implementation
// imposes the watermark it allows.
func New(conn net.Conn, watermark int, logger *slog.Logger) *Session {
	return &Session{
		ID:     uuid.New(),
		conn:   conn,
		logger: logger,
		queue:  make(chan string, watermark),
		done:   make(chan struct{}),
	}
}

// Start begins the read loop (incoming bytes are discarded; reads exist
// solely to detect peer close) and the write loop that serializes every
// socket write for this session.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

func (s *Session) readLoop() {
	defer s.Close()
	r := bufio.NewReader(s.conn)
	for {
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case body := <-s.queue:
			if _, err := io.WriteString(s.conn, body+"\n"); err != nil {
				s.logger.Debug("session: write failed, closing", "session", s.ID, "error", err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Deliver non-blockingly enqueues one already-signed body (without its
// trailing newline; the write loop appends it). Frames are either sent
// whole or not at all — there is no partial-frame path.
func (s *Session) Deliver(signedBody string) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.queue <- signedBody:
		obs.FramesBroadcast.Inc()
	default:
		obs.SessionFramesDropped.Inc()
		s.logger.Warn("session: dropping frame, queue over watermark", "session", s.ID)
	}
}

// Closed reports whether this session's socket has already failed or been
// torn down. A dead session is reclaimed lazily by the server at its next
// accept-time garbage collection.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close tears down the socket and stops the write loop. Safe to call more
// than once.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
		s.conn.Close()
	}
}
