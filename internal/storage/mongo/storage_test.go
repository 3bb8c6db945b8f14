package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mcoot/playeraccounts/internal/storage"
	"github.com/mcoot/playeraccounts/internal/storage/storagetest"
)

func getTestMongoURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping MongoDB integration test")
	}
	return uri
}

type StorageSuite struct {
	storagetest.Suite
	store *Storage
}

func TestStorageSuite(t *testing.T) {
	uri := getTestMongoURI(t)

	s := new(StorageSuite)
	s.NewStore = func() storage.DocumentStore {
		cfg := DefaultConfig()
		cfg.URI = uri
		cfg.Database = "accounts_test"
		// Isolate each test in its own collection
		cfg.Collection = fmt.Sprintf("accounts_%d", time.Now().UnixNano())

		store, err := New(context.Background(), cfg)
		require.NoError(s.T(), err)
		s.store = store
		return store
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.collection.Drop(context.Background())
	}
	s.Suite.TearDownTest()
}

func TestNormalizeDocument(t *testing.T) {
	raw := bson.M{
		"uuid":           "11111111-1111-1111-1111-111111111111",
		"previous_names": bson.A{"a", "b"},
		"previous_addresses": bson.A{
			bson.D{{Key: "value", Value: "10.0.0.1"}, {Key: "lastUsedOn", Value: int64(5)}},
		},
		"settings": bson.M{"flags": bson.A{int32(1)}},
		"joined":   primitive.DateTime(1700000000000),
	}

	doc := normalizeDocument(raw)

	assert.Equal(t, []any{"a", "b"}, doc["previous_names"])
	assert.Equal(t, []any{map[string]any{"value": "10.0.0.1", "lastUsedOn": int64(5)}}, doc["previous_addresses"])
	assert.Equal(t, map[string]any{"flags": []any{int32(1)}}, doc["settings"])
	assert.Equal(t, int64(1700000000000), doc["joined"])
}
