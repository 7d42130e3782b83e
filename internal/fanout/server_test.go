package fanout

import (
	"bufio"
	"log/slog"
	"net"
	"testing"
	"time"
)

func dialSubscriber(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func TestBroadcastDeliversSameBytesToEverySubscriber(t *testing.T) {
	srv, err := Listen("127.0.0.1:0", 64, slog.Default())
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer srv.Close()
	go srv.Serve()

	c1 := dialSubscriber(t, srv.Addr().String())
	defer c1.Close()
	c2 := dialSubscriber(t, srv.Addr().String())
	defer c2.Close()

	// Give the accept loop a moment to register both sessions.
	time.Sleep(50 * time.Millisecond)

	frames := []string{"f1|sig:aaa", "f2|sig:bbb", "f3|sig:ccc"}
	for _, f := range frames {
		srv.Broadcast(f)
	}

	for _, conn := range []net.Conn{c1, c2} {
		r := bufio.NewReader(conn)
		for _, want := range frames {
			got, err := r.ReadString('\n')
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if got != want+"\n" {
				t.Fatalf("got %q, want %q", got, want+"\n")
			}
		}
	}
}

func TestServeGCsDeadSessionsOnAccept(t *testing.T) {
	srv, err := Listen("127.0.0.1:0", 64, slog.Default())
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer srv.Close()
	go srv.Serve()

	c1 := dialSubscriber(t, srv.Addr().String())
	time.Sleep(20 * time.Millisecond)
	c1.Close()
	time.Sleep(20 * time.Millisecond)

	c2 := dialSubscriber(t, srv.Addr().String())
	defer c2.Close()
	time.Sleep(50 * time.Millisecond)

	srv.mu.Lock()
	n := len(srv.sessions)
	srv.mu.Unlock()

	if n != 1 {
		t.Fatalf("expected dead session to be GC'd on next accept, got %d live sessions", n)
	}
}
