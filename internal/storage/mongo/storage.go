package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
)

// Storage is a MongoDB-backed implementation of the document store
type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to MongoDB and makes sure the account indexes exist
func New(ctx context.Context, cfg Config) (*Storage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := &Storage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}

	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the uuid and name_lower indexes used by every lookup
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: model.FieldUUID, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Names can be taken over by another player after a rename, so
			// the index is not unique
			Keys: bson.D{{Key: model.FieldNameLower, Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

// Close disconnects the client
func (s *Storage) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ping checks the primary is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) FindOne(ctx context.Context, filter storage.Filter) (model.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	opts := options.FindOne().SetProjection(bson.M{"_id": 0})

	var raw bson.M
	err := s.collection.FindOne(ctx, bson.M{filter.Field: filter.Value}, opts).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}

	return normalizeDocument(raw), nil
}

func (s *Storage) UpsertField(ctx context.Context, filter storage.Filter, field string, value any) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	updates, err := storage.FieldUpdates(field, value)
	if err != nil {
		return err
	}

	// Only an identity filter may create a document
	opts := options.Update().SetUpsert(filter.Field == model.FieldUUID)

	res, err := s.collection.UpdateOne(ctx, bson.M{filter.Field: filter.Value}, bson.M{"$set": bson.M(updates)}, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return model.ErrDocumentNotFound
	}
	return nil
}

func (s *Storage) Save(ctx context.Context, doc model.Document) error {
	id, err := storage.DocumentID(doc)
	if err != nil {
		return err
	}

	replacement := bson.M(doc.Clone())
	delete(replacement, "_id")

	opts := options.Replace().SetUpsert(true)
	_, err = s.collection.ReplaceOne(ctx, bson.M{model.FieldUUID: id}, replacement, opts)
	return err
}

// normalizeDocument converts the driver's bson container types into the
// plain maps and slices the account model reads
func normalizeDocument(m bson.M) model.Document {
	doc := make(model.Document, len(m))
	for k, v := range m {
		doc[k] = normalizeValue(v)
	}
	return doc
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(normalizeDocument(t))
	case map[string]any:
		return map[string]any(normalizeDocument(t))
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case primitive.DateTime:
		return int64(t)
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
