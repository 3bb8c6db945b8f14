package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/playeraccounts/internal/cache"
	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/runner"
	"github.com/mcoot/playeraccounts/internal/storage"
)

// ErrIdentityMode is returned when a query names both or neither of a UUID
// and a username
var ErrIdentityMode = errors.New("exactly one of uuid or username must be given")

// Query identifies the account to fetch
type Query struct {
	UUID     uuid.UUID
	Username string

	// SkipCache goes straight to the store
	SkipCache bool
}

// ByUUID builds a query on the primary identity
func ByUUID(id uuid.UUID) Query {
	return Query{UUID: id}
}

// ByUsername builds a case-insensitive query on the display name
func ByUsername(name string) Query {
	return Query{Username: name}
}

// Validate checks that exactly one identity is given
func (q Query) Validate() error {
	hasUUID := q.UUID != uuid.Nil
	hasName := q.Username != ""
	if hasUUID == hasName {
		return ErrIdentityMode
	}
	return nil
}

func (q Query) String() string {
	if q.Username != "" {
		return "username " + q.Username
	}
	return "uuid " + q.UUID.String()
}

// Resolver looks accounts up in the cache and then the store. It never adds
// fetched accounts to the cache: an account is cached only while its player
// is online, and the session lifecycle owns that.
type Resolver struct {
	store  storage.DocumentStore
	cache  *cache.Cache
	runner *runner.Runner
	logger *slog.Logger
}

// New creates a Resolver
func New(store storage.DocumentStore, c *cache.Cache, r *runner.Runner, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		cache:  c,
		runner: r,
		logger: logger,
	}
}

// Resolve runs the lookup on the calling goroutine. A nil account with a nil
// error means the account does not exist.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*model.Account, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if !q.SkipCache {
		if account, ok := r.cacheLookup(q); ok {
			r.logger.Debug("account cache hit", slog.String("query", q.String()))
			return account, nil
		}
	}

	filter := storage.ByUUID(q.UUID.String())
	if q.Username != "" {
		filter = storage.ByNameLower(strings.ToLower(q.Username))
	}

	r.logger.Debug("fetching account from store", slog.String("query", q.String()))

	doc, err := r.store.FindOne(ctx, filter)
	if errors.Is(err, model.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by %s: %w", q, storage.Unavailable(err))
	}

	account, err := model.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("load account by %s: %w", q, err)
	}
	return account, nil
}

func (r *Resolver) cacheLookup(q Query) (*model.Account, bool) {
	if q.Username != "" {
		return r.cache.GetByUsername(q.Username)
	}
	return r.cache.GetByUUID(q.UUID)
}

// Fetch runs the lookup on the task runner. Identity errors are returned
// straight away, before anything is submitted.
func (r *Resolver) Fetch(q Query) (*runner.Future[*model.Account], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return runner.Go(r.runner, func(ctx context.Context) (*model.Account, error) {
		return r.Resolve(ctx, q)
	})
}

// FetchByUUID looks an account up by UUID off the calling goroutine
func (r *Resolver) FetchByUUID(id uuid.UUID) *runner.Future[*model.Account] {
	return r.fetchFuture(ByUUID(id))
}

// FetchByUsername looks an account up by name off the calling goroutine
func (r *Resolver) FetchByUsername(name string) *runner.Future[*model.Account] {
	return r.fetchFuture(ByUsername(name))
}

func (r *Resolver) fetchFuture(q Query) *runner.Future[*model.Account] {
	f, err := r.Fetch(q)
	if err != nil {
		return runner.Failed[*model.Account](err)
	}
	return f
}

// FetchByUUIDSync blocks until the account is resolved. Only call it from a
// goroutine that is allowed to wait on the store, such as the login path.
func (r *Resolver) FetchByUUIDSync(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.Resolve(ctx, ByUUID(id))
}

// FetchByUsernameSync blocks until the account is resolved
func (r *Resolver) FetchByUsernameSync(ctx context.Context, name string) (*model.Account, error) {
	return r.Resolve(ctx, ByUsername(name))
}

// SetRole changes the account's role in memory immediately and writes it to
// the store in the background. If the write fails the divergence is logged
// and the in-memory role is rolled back, unless it has changed again since.
func (r *Resolver) SetRole(account *model.Account, role model.Role) *runner.Future[struct{}] {
	if !role.Valid() {
		return runner.Failed[struct{}](fmt.Errorf("%w: %q", model.ErrInvalidRole, role))
	}

	id := account.ID()
	prev := account.ApplyRole(role)

	f, err := r.runner.Submit(func(ctx context.Context) error {
		err := r.store.UpsertField(ctx, storage.ByUUID(id.String()), model.FieldRole, string(role))
		if err != nil {
			r.roleDiverged(account, role, prev, err)
			return fmt.Errorf("write role for %s: %w", id, storage.Unavailable(err))
		}
		r.logger.Info("account role updated",
			slog.String("uuid", id.String()),
			slog.String("from", prev.String()),
			slog.String("to", role.String()),
		)
		return nil
	})
	if err != nil {
		r.roleDiverged(account, role, prev, err)
		return runner.Failed[struct{}](err)
	}
	return f
}

func (r *Resolver) roleDiverged(account *model.Account, role, prev model.Role, cause error) {
	reverted := account.RevertRole(role, prev)
	r.logger.Error("account role write failed; in-memory role diverged from store",
		slog.String("uuid", account.ID().String()),
		slog.String("attempted", role.String()),
		slog.String("previous", prev.String()),
		slog.Bool("reverted", reverted),
		slog.String("error", cause.Error()),
	)
}

// Save writes the whole account in the background. The document is taken
// when Save is called, so later changes to the account are not included.
func (r *Resolver) Save(account *model.Account) *runner.Future[struct{}] {
	doc := account.ToDocument()

	f, err := r.runner.Submit(func(ctx context.Context) error {
		if err := r.store.Save(ctx, doc); err != nil {
			return fmt.Errorf("save account %s: %w", account.ID(), storage.Unavailable(err))
		}
		return nil
	})
	if err != nil {
		return runner.Failed[struct{}](err)
	}
	return f
}

// CachePut marks the account as online
func (r *Resolver) CachePut(account *model.Account) {
	r.cache.Put(account)
}

// CacheInvalidate drops the account for id from the cache
func (r *Resolver) CacheInvalidate(id uuid.UUID) {
	r.cache.Invalidate(id)
}

// CacheGetByUUID returns the cached account for id
func (r *Resolver) CacheGetByUUID(id uuid.UUID) (*model.Account, bool) {
	return r.cache.GetByUUID(id)
}

// CacheGetByUsername returns the cached account with this name, ignoring case
func (r *Resolver) CacheGetByUsername(name string) (*model.Account, bool) {
	return r.cache.GetByUsername(name)
}

// CacheContainsUUID reports whether id is cached
func (r *Resolver) CacheContainsUUID(id uuid.UUID) bool {
	return r.cache.ContainsUUID(id)
}

// CacheContainsUsername reports whether name is cached, ignoring case
func (r *Resolver) CacheContainsUsername(name string) bool {
	return r.cache.ContainsUsername(name)
}

// CachedAccounts returns a snapshot of every cached account
func (r *Resolver) CachedAccounts() []*model.Account {
	return r.cache.Accounts()
}

// Ping checks the store is reachable
func (r *Resolver) Ping(ctx context.Context) error {
	return storage.Unavailable(r.store.Ping(ctx))
}
