package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (f *fakeConn) Write(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write failed")
	}
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeConn) CloseNow() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestBroadcast_AllReceive(t *testing.T) {
	h := New()
	conns := []*fakeConn{{}, {}, {}}
	for _, c := range conns {
		h.Register(c)
	}

	h.Broadcast(context.Background(), []byte("hello"))

	for i, c := range conns {
		if c.frameCount() != 1 {
			t.Fatalf("conn %d received %d frames, want 1", i, c.frameCount())
		}
	}
}

func TestBroadcast_FailedConnIsPruned(t *testing.T) {
	h := New()
	good1 := &fakeConn{}
	bad := &fakeConn{fail: true}
	good2 := &fakeConn{}
	h.Register(good1)
	h.Register(bad)
	h.Register(good2)

	h.Broadcast(context.Background(), []byte("hello"))

	if good1.frameCount() != 1 || good2.frameCount() != 1 {
		t.Fatalf("healthy connections missed the broadcast: %d, %d", good1.frameCount(), good2.frameCount())
	}
	if h.Len() != 2 {
		t.Fatalf("failed connection not pruned, registry size %d", h.Len())
	}
	if !bad.closed {
		t.Fatal("failed connection not closed")
	}

	// A pruned connection receives no further broadcasts
	h.Broadcast(context.Background(), []byte("again"))
	if good1.frameCount() != 2 {
		t.Fatalf("conn missed second broadcast: %d", good1.frameCount())
	}
}

func TestUnregister_Idempotent(t *testing.T) {
	h := New()
	c := &fakeConn{}
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)
	h.Unregister(&fakeConn{}) // never registered

	if h.Len() != 0 {
		t.Fatalf("unexpected registry size %d", h.Len())
	}
}

func TestSendTo_FailurePrunes(t *testing.T) {
	h := New()
	bad := &fakeConn{fail: true}
	h.Register(bad)

	if err := h.SendTo(context.Background(), bad, []byte("x")); err == nil {
		t.Fatal("expected send error")
	}
	if h.Len() != 0 {
		t.Fatalf("failed connection not pruned, registry size %d", h.Len())
	}
}

func TestSendTo_Success(t *testing.T) {
	h := New()
	c := &fakeConn{}
	h.Register(c)

	if err := h.SendTo(context.Background(), c, []byte("x")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if c.frameCount() != 1 {
		t.Fatalf("conn received %d frames, want 1", c.frameCount())
	}
}
