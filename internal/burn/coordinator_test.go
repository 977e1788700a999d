package burn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"barrier-access-control/internal/hub"
	"barrier-access-control/internal/protocol"
	"barrier-access-control/internal/storage"
)

type fakeCardStore struct {
	mu       sync.Mutex
	cards    map[string]storage.Card
	failNext error
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[string]storage.Card)}
}

func (f *fakeCardStore) CreateCard(ctx context.Context, card storage.Card) (*storage.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	if _, exists := f.cards[card.UID]; exists {
		return nil, storage.ErrDuplicateUid
	}
	f.cards[card.UID] = card
	return &card, nil
}

func (f *fakeCardStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cards)
}

func (f *fakeCardStore) get(uid string) (storage.Card, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[uid]
	return card, ok
}

type captureBroadcaster struct {
	mu     sync.Mutex
	frames [][]byte
}

func (b *captureBroadcaster) Broadcast(ctx context.Context, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, payload)
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testAttrs() Attributes {
	from := ts("2026-01-01T00:00:00Z")
	to := from.AddDate(1, 0, 0)
	return Attributes{AuthoredAccess: true, ValidFrom: from, ValidTo: &to}
}

func TestInitiate_BroadcastsAndPends(t *testing.T) {
	store := newFakeCardStore()
	broadcast := &captureBroadcaster{}
	c := NewCoordinator(store, broadcast, time.Minute)

	if c.Status() != StatusNone {
		t.Fatalf("fresh coordinator status %s, want none", c.Status())
	}

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if c.Status() != StatusPending {
		t.Fatalf("status %s, want pending", c.Status())
	}
	if broadcast.count() != 1 {
		t.Fatalf("got %d broadcasts, want 1", broadcast.count())
	}

	msg, err := protocol.Decode(broadcast.frames[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := msg.(protocol.BurnCard); !ok {
		t.Fatalf("expected BurnCard broadcast, got %T", msg)
	}
}

func TestInitiate_RejectsSecondWhilePending(t *testing.T) {
	c := NewCoordinator(newFakeCardStore(), &captureBroadcaster{}, time.Minute)

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	err := c.Initiate(context.Background(), testAttrs())
	if !errors.Is(err, ErrBurnAlreadyPending) {
		t.Fatalf("expected ErrBurnAlreadyPending, got %v", err)
	}
}

func TestInitiate_RejectsInvertedWindow(t *testing.T) {
	c := NewCoordinator(newFakeCardStore(), &captureBroadcaster{}, time.Minute)

	from := ts("2026-01-01T00:00:00Z")
	to := from.AddDate(0, 0, -1)
	err := c.Initiate(context.Background(), Attributes{ValidFrom: from, ValidTo: &to})
	if !errors.Is(err, storage.ErrInvalidCardWindow) {
		t.Fatalf("expected ErrInvalidCardWindow, got %v", err)
	}
	if c.Status() != StatusNone {
		t.Fatalf("status %s, want none", c.Status())
	}
}

func TestHandleResult_SuccessStoresCard(t *testing.T) {
	store := newFakeCardStore()
	c := NewCoordinator(store, &captureBroadcaster{}, time.Minute)
	attrs := testAttrs()

	if err := c.Initiate(context.Background(), attrs); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := c.HandleResult(context.Background(), protocol.BurnResponse{BurnSuccessful: true, UID: "X"}); err != nil {
		t.Fatalf("handle result: %v", err)
	}

	if c.Status() != StatusSucceeded {
		t.Fatalf("status %s, want succeeded", c.Status())
	}
	card, ok := store.get("X")
	if !ok {
		t.Fatal("card not stored")
	}
	if !card.AuthoredAccess || !card.ValidFrom.Equal(attrs.ValidFrom) || !card.ValidTo.Equal(*attrs.ValidTo) {
		t.Fatalf("stored card does not carry staged attributes: %+v", card)
	}
}

func TestHandleResult_DuplicateUID(t *testing.T) {
	store := newFakeCardStore()
	store.cards["X"] = storage.Card{UID: "X"}
	c := NewCoordinator(store, &captureBroadcaster{}, time.Minute)

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := c.HandleResult(context.Background(), protocol.BurnResponse{BurnSuccessful: true, UID: "X"}); err != nil {
		t.Fatalf("handle result: %v", err)
	}

	if c.Status() != StatusDuplicate {
		t.Fatalf("status %s, want duplicate", c.Status())
	}
	if store.count() != 1 {
		t.Fatalf("store gained a record, count %d", store.count())
	}
}

func TestHandleResult_DeviceFailure(t *testing.T) {
	c := NewCoordinator(newFakeCardStore(), &captureBroadcaster{}, time.Minute)

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := c.HandleResult(context.Background(), protocol.BurnResponse{BurnSuccessful: false}); err != nil {
		t.Fatalf("handle result: %v", err)
	}
	if c.Status() != StatusFailed {
		t.Fatalf("status %s, want failed", c.Status())
	}
}

func TestHandleResult_StoreFailureNeverStaysPending(t *testing.T) {
	store := newFakeCardStore()
	store.failNext = errors.New("disk on fire")
	c := NewCoordinator(store, &captureBroadcaster{}, time.Minute)

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := c.HandleResult(context.Background(), protocol.BurnResponse{BurnSuccessful: true, UID: "X"}); err == nil {
		t.Fatal("expected store error")
	}
	if c.Status() != StatusFailed {
		t.Fatalf("status %s, want failed", c.Status())
	}
}

func TestHandleResult_IgnoredWithoutPendingBurn(t *testing.T) {
	store := newFakeCardStore()
	c := NewCoordinator(store, &captureBroadcaster{}, time.Minute)

	if err := c.HandleResult(context.Background(), protocol.BurnResponse{BurnSuccessful: true, UID: "X"}); err != nil {
		t.Fatalf("handle result: %v", err)
	}
	if c.Status() != StatusNone {
		t.Fatalf("status %s, want none", c.Status())
	}
	if store.count() != 0 {
		t.Fatal("stray result must not create a card")
	}
}

func TestPendingBurnExpires(t *testing.T) {
	c := NewCoordinator(newFakeCardStore(), &captureBroadcaster{}, 10*time.Millisecond)

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for c.Status() == StatusPending {
		if time.Now().After(deadline) {
			t.Fatal("burn never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.Status() != StatusExpired {
		t.Fatalf("status %s, want expired", c.Status())
	}

	// An expired slot accepts a new burn
	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate after expiry: %v", err)
	}
}

func TestReset(t *testing.T) {
	c := NewCoordinator(newFakeCardStore(), &captureBroadcaster{}, time.Minute)

	if err := c.Initiate(context.Background(), testAttrs()); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrBurnAlreadyPending) {
		t.Fatalf("reset while pending must be refused, got %v", err)
	}

	if err := c.HandleResult(context.Background(), protocol.BurnResponse{BurnSuccessful: false}); err != nil {
		t.Fatalf("handle result: %v", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if c.Status() != StatusNone {
		t.Fatalf("status %s, want none", c.Status())
	}
}

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) Write(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeConn) CloseNow() error { return nil }

func (f *fakeConn) lastFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

// Full provisioning round: three connected devices, one replies, the reply
// is correlated through the global slot regardless of which device answers.
func TestBurnRoundTripThroughHub(t *testing.T) {
	ctx := context.Background()
	store := newFakeCardStore()
	deviceHub := hub.New()

	a, b, cConn := &fakeConn{}, &fakeConn{}, &fakeConn{}
	deviceHub.Register(a)
	deviceHub.Register(b)
	deviceHub.Register(cConn)

	coordinator := NewCoordinator(store, deviceHub, time.Minute)
	attrs := testAttrs()

	if err := coordinator.Initiate(ctx, attrs); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// All three devices received the burn command
	for i, conn := range []*fakeConn{a, b, cConn} {
		msg, err := protocol.Decode(conn.lastFrame())
		if err != nil {
			t.Fatalf("conn %d decode: %v", i, err)
		}
		if _, ok := msg.(protocol.BurnCard); !ok {
			t.Fatalf("conn %d expected BurnCard, got %T", i, msg)
		}
	}

	// Device B reports the successful write
	if err := coordinator.HandleResult(ctx, protocol.BurnResponse{BurnSuccessful: true, UID: "X"}); err != nil {
		t.Fatalf("handle result: %v", err)
	}

	if coordinator.Status() != StatusSucceeded {
		t.Fatalf("status %s, want succeeded", coordinator.Status())
	}
	card, ok := store.get("X")
	if !ok {
		t.Fatal("card not stored")
	}
	if !card.AuthoredAccess || !card.ValidFrom.Equal(attrs.ValidFrom) || !card.ValidTo.Equal(*attrs.ValidTo) {
		t.Fatalf("stored card does not carry staged attributes: %+v", card)
	}
}
