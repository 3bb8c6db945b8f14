// Package storagetest holds the behaviour every DocumentStore must share.
package storagetest

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
)

// Suite runs the shared document store tests. Backends embed it and set
// NewStore, which must return an empty store.
type Suite struct {
	suite.Suite
	NewStore func() storage.DocumentStore

	Store storage.DocumentStore
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Ctx = context.Background()
	s.Store = s.NewStore()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func aliceDocument(id string) model.Document {
	return model.Document{
		model.FieldUUID:              id,
		model.FieldName:              "Alice",
		model.FieldNameLower:         "alice",
		model.FieldRole:              "PLAYER",
		model.FieldPreviousNames:     []any{"Alyce"},
		model.FieldCurrentAddress:    "10.0.0.1",
		model.FieldPreviousAddresses: []any{map[string]any{model.FieldAddressValue: "10.0.0.2", model.FieldAddressLastUsed: int64(1700000000000)}},
		"chat_prefix":                "&a",
	}
}

func (s *Suite) TestSaveAndFindByUUID() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, aliceDocument(id)))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByUUID(id))
	s.Require().NoError(err)

	acc, err := model.FromDocument(doc)
	s.Require().NoError(err)
	s.Equal(id, acc.ID().String())
	s.Equal("Alice", acc.Username())
	s.Equal([]string{"Alyce"}, acc.PreviousUsernames())
	s.Equal([]model.PreviousAddress{{Value: "10.0.0.2", LastUsedOn: 1700000000000}}, acc.PreviousAddresses())

	prefix, err := acc.ReadExtraString("chat_prefix")
	s.Require().NoError(err)
	s.Equal("&a", prefix)
}

func (s *Suite) TestFindByNameLower() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, aliceDocument(id)))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByNameLower("alice"))
	s.Require().NoError(err)
	s.Equal(id, doc.String(model.FieldUUID))

	_, err = s.Store.FindOne(s.Ctx, storage.ByNameLower("Alice"))
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *Suite) TestFindOneNotFound() {
	_, err := s.Store.FindOne(s.Ctx, storage.ByUUID(uuid.NewString()))
	s.ErrorIs(err, model.ErrDocumentNotFound)

	_, err = s.Store.FindOne(s.Ctx, storage.ByNameLower("nobody"))
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *Suite) TestFindOneRejectsUnindexedField() {
	_, err := s.Store.FindOne(s.Ctx, storage.Filter{Field: "name", Value: "Alice"})
	s.ErrorIs(err, storage.ErrUnsupportedFilter)
}

func (s *Suite) TestSaveReplacesAndReindexes() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, aliceDocument(id)))

	renamed := aliceDocument(id)
	renamed[model.FieldName] = "Alicia"
	renamed[model.FieldNameLower] = "alicia"
	s.Require().NoError(s.Store.Save(s.Ctx, renamed))

	_, err := s.Store.FindOne(s.Ctx, storage.ByNameLower("alice"))
	s.ErrorIs(err, model.ErrDocumentNotFound)

	doc, err := s.Store.FindOne(s.Ctx, storage.ByNameLower("alicia"))
	s.Require().NoError(err)
	s.Equal(id, doc.String(model.FieldUUID))
}

func namedDocument(id, name string) model.Document {
	return model.Document{
		model.FieldUUID:      id,
		model.FieldName:      name,
		model.FieldNameLower: strings.ToLower(name),
		model.FieldRole:      "PLAYER",
	}
}

// A renames away from "Bob" after B has taken the name; B must stay findable
func (s *Suite) TestNameTakeoverKeepsNewOwnerIndexed() {
	first, second := uuid.NewString(), uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, namedDocument(first, "Bob")))
	s.Require().NoError(s.Store.Save(s.Ctx, namedDocument(second, "Bob")))
	s.Require().NoError(s.Store.Save(s.Ctx, namedDocument(first, "Alice")))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByNameLower("bob"))
	s.Require().NoError(err)
	s.Equal(second, doc.String(model.FieldUUID))

	doc, err = s.Store.FindOne(s.Ctx, storage.ByNameLower("alice"))
	s.Require().NoError(err)
	s.Equal(first, doc.String(model.FieldUUID))
}

func (s *Suite) TestNameTakeoverSurvivesUpsertRename() {
	first, second := uuid.NewString(), uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, namedDocument(first, "Bob")))
	s.Require().NoError(s.Store.Save(s.Ctx, namedDocument(second, "Bob")))
	s.Require().NoError(s.Store.UpsertField(s.Ctx, storage.ByUUID(first), model.FieldName, "Alice"))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByNameLower("bob"))
	s.Require().NoError(err)
	s.Equal(second, doc.String(model.FieldUUID))
}

func (s *Suite) TestSaveRequiresUUID() {
	err := s.Store.Save(s.Ctx, model.Document{model.FieldName: "Ghost"})
	s.ErrorIs(err, model.ErrMalformedDocument)
}

func (s *Suite) TestUpsertFieldUpdatesExisting() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, aliceDocument(id)))

	s.Require().NoError(s.Store.UpsertField(s.Ctx, storage.ByUUID(id), model.FieldRole, "ADMIN"))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByUUID(id))
	s.Require().NoError(err)
	s.Equal("ADMIN", doc.String(model.FieldRole))
	s.Equal("Alice", doc.String(model.FieldName))
}

func (s *Suite) TestUpsertFieldByNameLower() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, aliceDocument(id)))

	s.Require().NoError(s.Store.UpsertField(s.Ctx, storage.ByNameLower("alice"), model.FieldRole, "MOD"))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByUUID(id))
	s.Require().NoError(err)
	s.Equal("MOD", doc.String(model.FieldRole))
}

func (s *Suite) TestUpsertFieldInsertsByUUID() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.UpsertField(s.Ctx, storage.ByUUID(id), model.FieldRole, "DEV"))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByUUID(id))
	s.Require().NoError(err)
	s.Equal(id, doc.String(model.FieldUUID))
	s.Equal("DEV", doc.String(model.FieldRole))
}

func (s *Suite) TestUpsertFieldDoesNotInsertByName() {
	err := s.Store.UpsertField(s.Ctx, storage.ByNameLower("nobody"), model.FieldRole, "DEV")
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *Suite) TestUpsertNameKeepsIndexCurrent() {
	id := uuid.NewString()
	s.Require().NoError(s.Store.Save(s.Ctx, aliceDocument(id)))

	s.Require().NoError(s.Store.UpsertField(s.Ctx, storage.ByUUID(id), model.FieldName, "Alicia"))

	doc, err := s.Store.FindOne(s.Ctx, storage.ByNameLower("alicia"))
	s.Require().NoError(err)
	s.Equal("Alicia", doc.String(model.FieldName))

	_, err = s.Store.FindOne(s.Ctx, storage.ByNameLower("alice"))
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *Suite) TestUpsertFieldRejectsIdentity() {
	id := uuid.NewString()
	err := s.Store.UpsertField(s.Ctx, storage.ByUUID(id), model.FieldUUID, uuid.NewString())
	s.ErrorIs(err, storage.ErrImmutableField)
}

func (s *Suite) TestPing() {
	s.NoError(s.Store.Ping(s.Ctx))
}
