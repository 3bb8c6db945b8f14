package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playeraccounts/internal/cache"
	"github.com/mcoot/playeraccounts/internal/dependencies/mocks"
	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/resolver"
	"github.com/mcoot/playeraccounts/internal/runner"
	"github.com/mcoot/playeraccounts/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	ctx     context.Context
	store   *testutil.StubStore
	runner  *runner.Runner
	clock   *mocks.MockClock
	manager *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := testutil.NopLogger()
	s.store = testutil.NewStubStore()
	s.runner = runner.New(runner.DefaultConfig(), logger)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	r := resolver.New(s.store, cache.New(cache.Config{}, logger), s.runner, logger)
	s.manager = NewManager(r, s.clock, logger)
}

func (s *ManagerSuite) TearDownTest() {
	s.Require().NoError(s.runner.Shutdown(s.ctx))
}

// Login tests

func (s *ManagerSuite) TestFirstLoginCreatesAccount() {
	id := uuid.New()

	acc, err := s.manager.Login(s.ctx, LoginRequest{UUID: id, Name: "Ben", Address: "10.0.0.1"})
	s.Require().NoError(err)
	s.Equal("Ben", acc.Username())
	s.Equal(model.RolePlayer, acc.Role())
	s.Equal(1, s.store.Saves())

	grabbed, err := s.manager.Grab(id)
	s.Require().NoError(err)
	s.Same(acc, grabbed)
}

func (s *ManagerSuite) TestReturningLoginRecordsHistory() {
	id := uuid.New()
	s.Require().NoError(s.store.Seed(s.ctx, model.Document{
		model.FieldUUID:           id.String(),
		model.FieldName:           "Ben",
		model.FieldRole:           "MOD",
		model.FieldCurrentAddress: "10.0.0.1",
		"coins":                   float64(5),
	}))

	acc, err := s.manager.Login(s.ctx, LoginRequest{UUID: id, Name: "BenTwo", Address: "10.0.0.2"})
	s.Require().NoError(err)

	s.Equal("BenTwo", acc.Username())
	s.Equal(model.RoleMod, acc.Role())
	s.Equal([]string{"Ben"}, acc.PreviousUsernames())
	s.Equal([]model.PreviousAddress{
		{Value: "10.0.0.1", LastUsedOn: s.clock.Now().UnixMilli()},
	}, acc.PreviousAddresses())

	coins, err := model.Extra[int](acc, "coins")
	s.Require().NoError(err)
	s.Equal(5, coins)

	_, err = s.manager.GrabByName("bentwo")
	s.NoError(err)
}

func (s *ManagerSuite) TestLoginSkipsStaleCacheEntry() {
	id := uuid.New()
	_, err := s.manager.Login(s.ctx, LoginRequest{UUID: id, Name: "Ben"})
	s.Require().NoError(err)
	finds := s.store.Finds()

	_, err = s.manager.Login(s.ctx, LoginRequest{UUID: id, Name: "Ben"})
	s.Require().NoError(err)
	s.Equal(finds+1, s.store.Finds())
}

func (s *ManagerSuite) TestLoginFailsWhenStoreFails() {
	storeErr := errors.New("store unavailable")
	s.store.FailWith(storeErr)
	id := uuid.New()

	_, err := s.manager.Login(s.ctx, LoginRequest{UUID: id, Name: "Ben"})
	s.ErrorIs(err, storeErr)

	_, err = s.manager.Grab(id)
	s.ErrorIs(err, ErrNotOnline)
}

func (s *ManagerSuite) TestLoginRequiresUUID() {
	_, err := s.manager.Login(s.ctx, LoginRequest{Name: "Ben"})
	s.ErrorIs(err, resolver.ErrIdentityMode)
}

// Quit tests

func (s *ManagerSuite) TestQuitRemovesFromCache() {
	id := uuid.New()
	_, err := s.manager.Login(s.ctx, LoginRequest{UUID: id, Name: "Ben"})
	s.Require().NoError(err)
	s.Len(s.manager.Online(), 1)

	s.manager.Quit(id)

	_, err = s.manager.Grab(id)
	s.ErrorIs(err, ErrNotOnline)
	_, err = s.manager.GrabByName("Ben")
	s.ErrorIs(err, ErrNotOnline)
	s.Empty(s.manager.Online())
}

func (s *ManagerSuite) TestQuitUnknownIsNoop() {
	s.manager.Quit(uuid.New())
	s.Empty(s.manager.Online())
}
