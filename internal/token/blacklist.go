package token

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

// Blacklist is an in-memory set of revoked token IDs. Membership checks are
// O(1) and entries are evicted once the underlying token would have expired
// anyway, so the set never grows without bound.
type Blacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	stop    chan struct{}
}

func NewBlacklist() *Blacklist {
	b := &Blacklist{
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
	go b.janitor()
	return b
}

// Revoke marks the token ID revoked until expiresAt.
func (b *Blacklist) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[jti] = expiresAt
}

func (b *Blacklist) IsRevoked(jti string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.entries[jti]
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		delete(b.entries, jti)
		return false
	}
	return true
}

func (b *Blacklist) sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for jti, expiresAt := range b.entries {
		if now.After(expiresAt) {
			delete(b.entries, jti)
		}
	}
}

func (b *Blacklist) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case now := <-ticker.C:
			b.sweep(now)
		}
	}
}

func (b *Blacklist) Close() {
	close(b.stop)
}
