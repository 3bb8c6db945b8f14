package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
	"github.com/mcoot/playeraccounts/internal/storage/storagetest"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}
	return url
}

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	url := getTestDatabaseURL(t)

	s := new(StorageSuite)
	s.NewStore = func() storage.DocumentStore {
		ctx := context.Background()

		store, err := New(ctx, url)
		require.NoError(s.T(), err)

		// Clean up accounts table for test isolation
		_, err = store.pool.Exec(ctx, "DELETE FROM accounts")
		require.NoError(s.T(), err)

		return store
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestNameLowerColumnFollowsDocument() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, model.Document{
		model.FieldUUID:      id,
		model.FieldName:      "Ben",
		model.FieldNameLower: "ben",
	}))
	s.Require().NoError(s.Store.UpsertField(s.Ctx, storage.ByNameLower("ben"), model.FieldName, "Benji"))

	var column string
	err := s.Store.(*Storage).pool.QueryRow(s.Ctx, "SELECT name_lower FROM accounts WHERE uuid = $1", id).Scan(&column)
	s.Require().NoError(err)
	s.Equal("benji", column)
}
