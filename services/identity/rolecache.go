package identity

import (
	"context"
	"sync"
	"time"

	"servicehub/models"

	"github.com/juju/clock"
)

// Cached is the persisted pair kept per browser session. It is a hint for
// fast navigation decisions, never the source of truth.
type Cached struct {
	Role   models.Role
	UserID string
}

// RoleCache is the durable key-value store behind the userRole and userId keys.
type RoleCache interface {
	Load(ctx context.Context, sid string) (Cached, error)
	SetUserID(ctx context.Context, sid, uid string) error
	SetRole(ctx context.Context, sid string, role models.Role) error
	Clear(ctx context.Context, sid string) error
}

// MemoryRoleCache keeps the keys in process. With a TTL, entries expire after
// their last write like the Redis keys do, and expired entries are pruned at
// most once per TTL.
type MemoryRoleCache struct {
	clock clock.Clock
	ttl   time.Duration

	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastPrune time.Time
}

type memoryEntry struct {
	Cached
	expires time.Time
}

// NewMemoryRoleCache returns a cache whose entries never expire.
func NewMemoryRoleCache() *MemoryRoleCache {
	return NewExpiringMemoryRoleCache(clock.WallClock, 0)
}

func NewExpiringMemoryRoleCache(clk clock.Clock, ttl time.Duration) *MemoryRoleCache {
	return &MemoryRoleCache{
		clock:     clk,
		ttl:       ttl,
		entries:   make(map[string]memoryEntry),
		lastPrune: clk.Now(),
	}
}

func (c *MemoryRoleCache) Load(_ context.Context, sid string) (Cached, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sid]
	if ok && c.expired(e, c.clock.Now()) {
		delete(c.entries, sid)
		return Cached{}, nil
	}
	return e.Cached, nil
}

func (c *MemoryRoleCache) SetUserID(_ context.Context, sid, uid string) error {
	c.update(sid, func(e *Cached) { e.UserID = uid })
	return nil
}

func (c *MemoryRoleCache) SetRole(_ context.Context, sid string, role models.Role) error {
	c.update(sid, func(e *Cached) { e.Role = role })
	return nil
}

func (c *MemoryRoleCache) Clear(_ context.Context, sid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sid)
	return nil
}

// Len is the number of entries held, expired or not.
func (c *MemoryRoleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryRoleCache) update(sid string, fn func(*Cached)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	e := c.entries[sid]
	if c.expired(e, now) {
		e = memoryEntry{}
	}
	fn(&e.Cached)
	if c.ttl > 0 {
		e.expires = now.Add(c.ttl)
	}
	c.entries[sid] = e
	c.prune(now)
}

// prune must be called with c.mu held.
func (c *MemoryRoleCache) prune(now time.Time) {
	if c.ttl <= 0 || now.Sub(c.lastPrune) < c.ttl {
		return
	}
	for sid, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, sid)
		}
	}
	c.lastPrune = now
}

func (c *MemoryRoleCache) expired(e memoryEntry, now time.Time) bool {
	return c.ttl > 0 && !e.expires.IsZero() && !now.Before(e.expires)
}
