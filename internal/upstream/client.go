// Package upstream implements stage B's client: it resolves and connects to
// stage A's fan-out server, reads framed signed lines, verifies them, and
// pushes verified ticks into the ingress ring. Any I/O failure tears the
// connection down and re-enters the resolve/connect cycle after a fixed
// back-off.
package upstream

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/marketpulse/tickmesh/internal/framing"
	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/ring"
	"github.com/marketpulse/tickmesh/internal/signing"
	"github.com/marketpulse/tickmesh/internal/ticks"
)

const reconnectBackoff = time.Second

// Client drives the Resolving -> Connecting -> Reading -> Closed state
// machine of spec.md §4.7. Go's net.Dialer already resolves a host to
// multiple addresses and tries them in order, so Resolving and Connecting
// are expressed as a single DialContext call rather than two explicit
// states.
type Client struct {
	addr   string
	signer *signing.Signer
	ring   *ring.Ring[ticks.Tick]
	logger *slog.Logger
}

// New builds an upstream Client targeting addr (nominally
// "127.0.0.1:9001"), verifying frames with signer and pushing verified
// ticks into r.
func New(addr string, signer *signing.Signer, r *ring.Ring[ticks.Tick], logger *slog.Logger) *Client {
	return &Client{addr: addr, signer: signer, ring: r, logger: logger}
}

// Run blocks, reconnecting on any failure, until ctx is canceled.
func (c *Client) Run(ctx context.Context) {
	for ctx.Err() == nil {
		conn, err := c.connect(ctx)
		if err != nil {
			c.logger.Warn("upstream: connect failed", "addr", c.addr, "error", err)
			if !sleepCtx(ctx, reconnectBackoff) {
				return
			}
			continue
		}

		c.readLoop(ctx, conn)
		conn.Close()
		obs.UpstreamReconnects.Inc()

		if !sleepCtx(ctx, reconnectBackoff) {
			return
		}
	}
}

func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", c.addr)
}

// readLoop repeatedly reads until '\n', decodes, verifies, and enqueues. It
// returns on any read error so the caller can reconnect.
func (c *Client) readLoop(ctx context.Context, conn net.Conn) {
	r := bufio.NewReader(conn)
	for ctx.Err() == nil {
		line, err := r.ReadString('\n')
		if err != nil {
			c.logger.Debug("upstream: read failed, reconnecting", "error", err)
			return
		}

		t, err := framing.DecodeLine(c.signer, line)
		if err != nil {
			obs.FramesRejected.Inc()
			c.logger.Warn("upstream: dropping malformed or unverified frame", "error", err)
			continue
		}

		if !c.ring.Push(t) {
			obs.RingDropped.Inc()
			c.logger.Warn("upstream: ingress ring full, dropping tick", "symbol", t.Symbol, "ts", t.TS)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
