package cache

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mcoot/playeraccounts/internal/model"
)

// Cache holds the accounts of currently connected players, keyed by UUID.
//
// Dropped entries are never written back: every mutation reaches the store
// on its own. Username lookups scan the cache, which stays small because only
// online players are cached.
type Cache struct {
	entries *expirable.LRU[uuid.UUID, *model.Account]
	logger  *slog.Logger
}

// New creates a cache bounded by cfg
func New(cfg Config, logger *slog.Logger) *Cache {
	c := &Cache{logger: logger}
	c.entries = expirable.NewLRU[uuid.UUID, *model.Account](cfg.MaximumSize, c.onEvict, cfg.ExpireAfterWrite)
	return c
}

// onEvict runs under the LRU's lock and must not call back into the cache
func (c *Cache) onEvict(id uuid.UUID, _ *model.Account) {
	c.logger.Debug("account dropped from cache", slog.String("uuid", id.String()))
}

// Put inserts or replaces the account under its UUID
func (c *Cache) Put(account *model.Account) {
	if account == nil {
		return
	}
	c.entries.Add(account.ID(), account)
}

// GetByUUID returns the cached account for id
func (c *Cache) GetByUUID(id uuid.UUID) (*model.Account, bool) {
	return c.entries.Get(id)
}

// GetByUsername returns the first cached account whose name matches,
// ignoring case
func (c *Cache) GetByUsername(name string) (*model.Account, bool) {
	for _, account := range c.live() {
		if strings.EqualFold(account.Username(), name) {
			return account, true
		}
	}
	return nil, false
}

// Invalidate drops the account for id, if cached
func (c *Cache) Invalidate(id uuid.UUID) {
	c.entries.Remove(id)
}

// ContainsUUID reports whether id is cached
func (c *Cache) ContainsUUID(id uuid.UUID) bool {
	// Peek rather than Contains: Contains does not honour expiry
	_, ok := c.entries.Peek(id)
	return ok
}

// ContainsUsername reports whether an account with this name is cached
func (c *Cache) ContainsUsername(name string) bool {
	_, ok := c.GetByUsername(name)
	return ok
}

// Accounts returns a snapshot of the cached accounts
func (c *Cache) Accounts() []*model.Account {
	return c.live()
}

// live lists the unexpired accounts, oldest first. expirable's Values leaves
// zero slots for entries that expired but have not been reaped yet, so each
// key is peeked instead.
func (c *Cache) live() []*model.Account {
	keys := c.entries.Keys()
	accounts := make([]*model.Account, 0, len(keys))
	for _, id := range keys {
		if account, ok := c.entries.Peek(id); ok && account != nil {
			accounts = append(accounts, account)
		}
	}
	return accounts
}

// Len returns the number of cached accounts
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached account
func (c *Cache) Purge() {
	c.entries.Purge()
}
