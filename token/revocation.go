package token

import (
	"sync"
	"time"
)

// Denylist tracks token ids (jti) that must be rejected until the token
// would have expired on its own. Logged-out access tokens and consumed
// password reset tokens both land here.
type Denylist interface {
	// Deny rejects jti until the given time.
	Deny(jti string, until time.Time) error
	Denied(jti string) bool
	// DenyOnce denies jti and reports whether it was newly added. A false
	// result means the id had already been denied.
	DenyOnce(jti string, until time.Time) (bool, error)
	// Prune forgets entries whose expiry is before now and returns how many
	// were dropped.
	Prune(now time.Time) int
}

// MemoryDenylist is a process-local Denylist.
type MemoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Deny(jti string, until time.Time) error {
	d.mu.Lock()
	d.entries[jti] = until
	d.mu.Unlock()
	return nil
}

func (d *MemoryDenylist) Denied(jti string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[jti]
	return ok
}

func (d *MemoryDenylist) DenyOnce(jti string, until time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entries[jti]; ok {
		return false, nil
	}
	d.entries[jti] = until
	return true, nil
}

func (d *MemoryDenylist) Prune(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	dropped := 0
	for jti, until := range d.entries {
		if until.Before(now) {
			delete(d.entries, jti)
			dropped++
		}
	}
	return dropped
}

// Len reports how many ids are currently denied.
func (d *MemoryDenylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
