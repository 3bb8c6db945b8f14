package resolver

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playeraccounts/internal/cache"
	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/runner"
	"github.com/mcoot/playeraccounts/internal/storage"
	"github.com/mcoot/playeraccounts/internal/testutil"
)

var errStoreDown = errors.New("store unavailable")

type ResolverSuite struct {
	suite.Suite
	ctx      context.Context
	store    *testutil.StubStore
	cache    *cache.Cache
	runner   *runner.Runner
	resolver *Resolver
	logs     *testutil.LogBuffer
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = testutil.NewStubStore()
	s.cache = cache.New(cache.Config{}, testutil.NopLogger())
	s.runner = runner.New(runner.DefaultConfig(), testutil.NopLogger())
	var logger *slog.Logger
	logger, s.logs = testutil.CaptureLogger()
	s.resolver = New(s.store, s.cache, s.runner, logger)
}

func (s *ResolverSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.runner.Shutdown(ctx))
}

func (s *ResolverSuite) seedAlice() uuid.UUID {
	id := uuid.MustParse("6f1b2c3d-0000-4000-8000-000000000001")
	s.Require().NoError(s.store.Seed(s.ctx, model.Document{
		model.FieldUUID:      id.String(),
		model.FieldName:      "Alice",
		model.FieldNameLower: "alice",
		model.FieldRole:      "ADMIN",
	}))
	return id
}

func (s *ResolverSuite) wait(f *runner.Future[*model.Account]) (*model.Account, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return f.Get(ctx)
}

func (s *ResolverSuite) TestFetchByUsernameFromStore() {
	id := s.seedAlice()

	acc, err := s.wait(s.resolver.FetchByUsername("ALICE"))
	s.Require().NoError(err)
	s.Require().NotNil(acc)
	s.Equal(id, acc.ID())
	s.Equal("Alice", acc.Username())
	s.Equal(model.RoleAdmin, acc.Role())
	s.Equal(1, s.store.Finds())

	// Fetching never populates the cache
	s.False(s.resolver.CacheContainsUUID(id))
}

func (s *ResolverSuite) TestFetchByUUIDSync() {
	id := s.seedAlice()

	acc, err := s.resolver.FetchByUUIDSync(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(acc)
	s.Equal("Alice", acc.Username())
}

func (s *ResolverSuite) TestCacheHitSkipsStore() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "10.0.0.1")
	s.resolver.CachePut(acc)

	got, err := s.resolver.FetchByUUIDSync(s.ctx, acc.ID())
	s.Require().NoError(err)
	s.Same(acc, got)

	got, err = s.wait(s.resolver.FetchByUsername("bEN"))
	s.Require().NoError(err)
	s.Same(acc, got)

	s.Equal(0, s.store.Finds())
	s.Contains(s.logs.String(), "account cache hit")
}

func (s *ResolverSuite) TestSkipCacheGoesToStore() {
	id := s.seedAlice()
	cached := model.NewFromLogin(id, "Alice", "")
	s.resolver.CachePut(cached)

	got, err := s.resolver.Resolve(s.ctx, Query{UUID: id, SkipCache: true})
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.NotSame(cached, got)
	s.Equal(model.RoleAdmin, got.Role())
	s.Equal(1, s.store.Finds())
}

func (s *ResolverSuite) TestInvalidateThenCacheLookupIsEmpty() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "")
	s.resolver.CachePut(acc)
	s.resolver.CacheInvalidate(acc.ID())

	_, ok := s.resolver.CacheGetByUUID(acc.ID())
	s.False(ok)
	_, ok = s.resolver.CacheGetByUsername("ben")
	s.False(ok)
	s.False(s.resolver.CacheContainsUsername("Ben"))
}

func (s *ResolverSuite) TestUnknownAccountIsEmpty() {
	id := uuid.New()

	acc, err := s.resolver.FetchByUUIDSync(s.ctx, id)
	s.NoError(err)
	s.Nil(acc)

	acc, err = s.wait(s.resolver.FetchByUUID(id))
	s.NoError(err)
	s.Nil(acc)

	acc, err = s.resolver.FetchByUsernameSync(s.ctx, "nobody")
	s.NoError(err)
	s.Nil(acc)
}

func (s *ResolverSuite) TestIdentityModeViolation() {
	_, err := s.resolver.Resolve(s.ctx, Query{UUID: uuid.New(), Username: "Ben"})
	s.ErrorIs(err, ErrIdentityMode)

	_, err = s.resolver.Resolve(s.ctx, Query{})
	s.ErrorIs(err, ErrIdentityMode)

	_, err = s.resolver.Fetch(Query{})
	s.ErrorIs(err, ErrIdentityMode)

	_, err = s.wait(s.resolver.FetchByUsername(""))
	s.ErrorIs(err, ErrIdentityMode)

	s.Equal(0, s.store.Finds())
}

func (s *ResolverSuite) TestStoreErrorSurfacesInBothModes() {
	s.store.FailWith(errStoreDown)

	_, err := s.resolver.FetchByUUIDSync(s.ctx, uuid.New())
	s.ErrorIs(err, errStoreDown)
	s.ErrorIs(err, storage.ErrUnavailable)

	_, err = s.wait(s.resolver.FetchByUsername("Ben"))
	s.ErrorIs(err, errStoreDown)
	s.ErrorIs(err, storage.ErrUnavailable)
}

func (s *ResolverSuite) TestMalformedDocumentIsError() {
	id := uuid.New()
	s.Require().NoError(s.store.Seed(s.ctx, model.Document{
		model.FieldUUID: id.String(),
		model.FieldRole: "EMPEROR",
	}))

	_, err := s.resolver.FetchByUUIDSync(s.ctx, id)
	s.ErrorIs(err, model.ErrMalformedDocument)
	s.NotErrorIs(err, storage.ErrUnavailable)
}

func (s *ResolverSuite) TestSetRolePersists() {
	id := s.seedAlice()
	acc, err := s.resolver.FetchByUUIDSync(s.ctx, id)
	s.Require().NoError(err)

	f := s.resolver.SetRole(acc, model.RoleMod)
	s.Equal(model.RoleMod, acc.Role())

	_, err = f.Get(s.ctx)
	s.Require().NoError(err)

	stored, err := s.resolver.Resolve(s.ctx, Query{UUID: id, SkipCache: true})
	s.Require().NoError(err)
	s.Equal(model.RoleMod, stored.Role())
}

func (s *ResolverSuite) TestSetRoleRollsBackOnFailure() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "")
	s.store.FailWith(errStoreDown)

	_, err := s.resolver.SetRole(acc, model.RoleAdmin).Get(s.ctx)
	s.ErrorIs(err, errStoreDown)
	s.Equal(model.RolePlayer, acc.Role())
	s.Equal(1, s.store.Upserts())
	s.Contains(s.logs.String(), "account role write failed")
	s.Contains(s.logs.String(), `"reverted":true`)
}

func (s *ResolverSuite) TestSetRoleKeepsNewerRoleOnFailure() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "")
	s.store.FailWith(errStoreDown)
	release := s.store.Block()

	f := s.resolver.SetRole(acc, model.RoleAdmin)
	acc.ApplyRole(model.RoleHelper)
	release()

	_, err := f.Get(s.ctx)
	s.ErrorIs(err, errStoreDown)
	s.Equal(model.RoleHelper, acc.Role())
	s.Contains(s.logs.String(), `"reverted":false`)
}

func (s *ResolverSuite) TestSetRoleRejectsUnknownRole() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "")

	_, err := s.resolver.SetRole(acc, model.Role("EMPEROR")).Get(s.ctx)
	s.ErrorIs(err, model.ErrInvalidRole)
	s.Equal(model.RolePlayer, acc.Role())
	s.Equal(0, s.store.Upserts())
}

func (s *ResolverSuite) TestSetRoleAfterShutdownRollsBack() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "")
	s.Require().NoError(s.runner.Shutdown(s.ctx))

	_, err := s.resolver.SetRole(acc, model.RoleAdmin).Get(s.ctx)
	s.ErrorIs(err, runner.ErrRunnerClosed)
	s.Equal(model.RolePlayer, acc.Role())
}

func (s *ResolverSuite) TestSaveWritesSnapshot() {
	acc := model.NewFromLogin(uuid.New(), "Ben", "10.0.0.1")
	s.Require().NoError(acc.SetExtra("coins", 10))

	f := s.resolver.Save(acc)
	acc.RecordLogin("BenLater", "", time.Now())

	_, err := f.Get(s.ctx)
	s.Require().NoError(err)

	stored, err := s.resolver.FetchByUsernameSync(s.ctx, "ben")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal("Ben", stored.Username())

	coins, err := model.Extra[int](stored, "coins")
	s.Require().NoError(err)
	s.Equal(10, coins)
}

func (s *ResolverSuite) TestCachedAccounts() {
	a := model.NewFromLogin(uuid.New(), "Ben", "")
	b := model.NewFromLogin(uuid.New(), "Alice", "")
	s.resolver.CachePut(a)
	s.resolver.CachePut(b)

	s.ElementsMatch([]*model.Account{a, b}, s.resolver.CachedAccounts())
}

func (s *ResolverSuite) TestPing() {
	s.NoError(s.resolver.Ping(s.ctx))
	s.store.FailWith(errStoreDown)
	s.ErrorIs(s.resolver.Ping(s.ctx), errStoreDown)
}
