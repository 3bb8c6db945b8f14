package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
)

// Storage is a Redis-backed implementation of the document store. Each
// account is a JSON string value with a separate key per lower-cased name.
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keys{prefix: cfg.KeyPrefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) FindOne(ctx context.Context, filter storage.Filter) (model.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	id, err := s.resolve(ctx, filter)
	if err != nil {
		return nil, err
	}

	doc, err := s.get(ctx, s.client, id)
	if err != nil {
		return nil, err
	}

	// The index is written alongside the document but a concurrent rename
	// can leave it pointing at a document that moved on
	if filter.Field == model.FieldNameLower && doc.String(model.FieldNameLower) != filter.Value {
		return nil, model.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *Storage) Save(ctx context.Context, doc model.Document) error {
	id, err := storage.DocumentID(doc)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	newName := doc.String(model.FieldNameLower)
	key := s.keys.account(id)

	return s.watch(ctx, key, func(tx *redis.Tx) error {
		oldName, err := s.storedName(ctx, tx, id)
		if err != nil {
			return err
		}
		stale, err := s.staleIndex(ctx, tx, id, oldName, newName)
		if err != nil {
			return err
		}

		// Use pipeline for atomic save + index update
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			s.moveIndex(ctx, pipe, id, stale, newName)
			return nil
		})
		return err
	})
}

func (s *Storage) UpsertField(ctx context.Context, filter storage.Filter, field string, value any) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	updates, err := storage.FieldUpdates(field, value)
	if err != nil {
		return err
	}

	id, err := s.resolve(ctx, filter)
	if err != nil {
		return err
	}
	key := s.keys.account(id)

	return s.watch(ctx, key, func(tx *redis.Tx) error {
		doc, err := s.get(ctx, tx, id)
		switch {
		case errors.Is(err, model.ErrDocumentNotFound):
			if filter.Field != model.FieldUUID {
				return err
			}
			doc = model.Document{model.FieldUUID: id}
		case err != nil:
			return err
		}

		oldName := doc.String(model.FieldNameLower)
		for k, v := range updates {
			doc[k] = v
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		newName := doc.String(model.FieldNameLower)
		stale, err := s.staleIndex(ctx, tx, id, oldName, newName)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			s.moveIndex(ctx, pipe, id, stale, newName)
			return nil
		})
		return err
	})
}

// watch runs fn in an optimistic transaction on key, retrying when the key
// changes before the transaction commits
func (s *Storage) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update of %s kept conflicting after %d attempts", key, s.cfg.MaxTxRetries)
}

// staleIndex returns the index entry id leaves behind when its name moves
// from oldName to newName, or "" if there is nothing to drop. Names change
// hands, so the old entry is only stale while it still points at id. The
// entry is watched so a concurrent takeover aborts the transaction.
func (s *Storage) staleIndex(ctx context.Context, tx *redis.Tx, id, oldName, newName string) (string, error) {
	if oldName == "" || oldName == newName {
		return "", nil
	}

	indexKey := s.keys.nameIndex(oldName)
	if err := tx.Watch(ctx, indexKey).Err(); err != nil {
		return "", err
	}
	owner, err := tx.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if owner != id {
		return "", nil
	}
	return oldName, nil
}

// moveIndex queues the index changes for a document whose name moved to
// newName, dropping the stale entry if there is one
func (s *Storage) moveIndex(ctx context.Context, pipe redis.Pipeliner, id, stale, newName string) {
	if stale != "" {
		pipe.Del(ctx, s.keys.nameIndex(stale))
	}
	if newName != "" {
		pipe.Set(ctx, s.keys.nameIndex(newName), id, 0)
	}
}

// resolve maps a filter to an account uuid
func (s *Storage) resolve(ctx context.Context, filter storage.Filter) (string, error) {
	if filter.Field == model.FieldUUID {
		return filter.Value, nil
	}

	// Look up account uuid from name index
	id, err := s.client.Get(ctx, s.keys.nameIndex(filter.Value)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrDocumentNotFound
		}
		return "", err
	}
	return id, nil
}

// storedName returns the indexed name of the stored document, or "" if none
func (s *Storage) storedName(ctx context.Context, c redis.Cmdable, id string) (string, error) {
	doc, err := s.get(ctx, c, id)
	if errors.Is(err, model.ErrDocumentNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.String(model.FieldNameLower), nil
}

func (s *Storage) get(ctx context.Context, c redis.Cmdable, id string) (model.Document, error) {
	data, err := c.Get(ctx, s.keys.account(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}

	doc, err := model.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedDocument, err)
	}
	return doc, nil
}
