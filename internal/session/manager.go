package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/playeraccounts/internal/dependencies/clock"
	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/resolver"
)

// ErrNotOnline is returned when a cache-only lookup misses
var ErrNotOnline = errors.New("player is not online")

// LoginRequest is what a connecting client presents
type LoginRequest struct {
	UUID    uuid.UUID
	Name    string
	Address string
}

// Manager ties an account's cache lifetime to its player's session. Accounts
// enter the cache at login and leave it at quit.
type Manager struct {
	resolver *resolver.Resolver
	clock    clock.Clock
	logger   *slog.Logger
}

// NewManager creates a session manager
func NewManager(r *resolver.Resolver, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		resolver: r,
		clock:    clk,
		logger:   logger,
	}
}

// Login loads or creates the account for a connecting player, records the
// name and address it connected with, writes it back and caches it. The
// player must not be admitted if Login fails.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (*model.Account, error) {
	if req.UUID == uuid.Nil {
		return nil, resolver.ErrIdentityMode
	}

	account, err := m.resolver.Resolve(ctx, resolver.Query{UUID: req.UUID, SkipCache: true})
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", req.UUID, err)
	}

	firstLogin := account == nil
	if firstLogin {
		account = model.NewFromLogin(req.UUID, req.Name, req.Address)
	} else {
		account.RecordLogin(req.Name, req.Address, m.clock.Now())
	}

	if _, err := m.resolver.Save(account).Get(ctx); err != nil {
		return nil, fmt.Errorf("login %s: %w", req.UUID, err)
	}

	m.resolver.CachePut(account)

	m.logger.Info("player logged in",
		slog.String("uuid", req.UUID.String()),
		slog.String("name", account.Username()),
		slog.Bool("first_login", firstLogin),
	)
	return account, nil
}

// Quit drops the player's account from the cache
func (m *Manager) Quit(id uuid.UUID) {
	m.resolver.CacheInvalidate(id)
	m.logger.Info("player logged out", slog.String("uuid", id.String()))
}

// Grab returns the account of an online player
func (m *Manager) Grab(id uuid.UUID) (*model.Account, error) {
	account, ok := m.resolver.CacheGetByUUID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOnline, id)
	}
	return account, nil
}

// GrabByName returns the account of an online player by name, ignoring case
func (m *Manager) GrabByName(name string) (*model.Account, error) {
	account, ok := m.resolver.CacheGetByUsername(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOnline, name)
	}
	return account, nil
}

// Online returns the accounts of every online player
func (m *Manager) Online() []*model.Account {
	return m.resolver.CachedAccounts()
}
