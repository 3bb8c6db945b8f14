package factory

import (
	"time"

	"github.com/mcoot/playeraccounts/internal/cache"
	"github.com/mcoot/playeraccounts/internal/dependencies/mocks"
	"github.com/mcoot/playeraccounts/internal/runner"
	"github.com/mcoot/playeraccounts/internal/storage/memory"
	"github.com/mcoot/playeraccounts/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Backing store and clock for test control
	Memory    *memory.Storage
	MockClock *mocks.MockClock
}

// NewTestApp creates an App backed by an in-memory store and a mocked clock
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, cache.Config{}, runner.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		Memory:    store,
		MockClock: mockClock,
	}
}
