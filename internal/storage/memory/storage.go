package memory

import (
	"context"
	"sync"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
)

// Storage is an in-memory implementation of the document store
type Storage struct {
	mu sync.RWMutex

	documents map[string]model.Document // uuid -> document
	nameIndex map[string]string         // name_lower -> uuid
	names     map[string]string         // uuid -> name_lower
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		documents: make(map[string]model.Document),
		nameIndex: make(map[string]string),
		names:     make(map[string]string),
	}
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) FindOne(ctx context.Context, filter storage.Filter) (model.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.resolve(filter)
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	return s.documents[id].Clone(), nil
}

func (s *Storage) UpsertField(ctx context.Context, filter storage.Filter, field string, value any) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	updates, err := storage.FieldUpdates(field, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.resolve(filter)
	if !ok {
		if filter.Field != model.FieldUUID {
			return model.ErrDocumentNotFound
		}
		id = filter.Value
		s.documents[id] = model.Document{model.FieldUUID: id}
	}

	doc := s.documents[id]
	for k, v := range updates {
		doc[k] = v
	}
	s.reindex(id, doc)
	return nil
}

func (s *Storage) Save(ctx context.Context, doc model.Document) error {
	id, err := storage.DocumentID(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Clone()
	s.documents[id] = stored
	s.reindex(id, stored)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Len returns the number of stored documents
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// resolve maps a filter to a document uuid. mu must be held.
func (s *Storage) resolve(filter storage.Filter) (string, bool) {
	switch filter.Field {
	case model.FieldUUID:
		_, ok := s.documents[filter.Value]
		return filter.Value, ok
	case model.FieldNameLower:
		id, ok := s.nameIndex[filter.Value]
		return id, ok
	}
	return "", false
}

// reindex points the name index at doc, dropping any stale entry. mu must be held.
func (s *Storage) reindex(id string, doc model.Document) {
	if old, ok := s.names[id]; ok && s.nameIndex[old] == id {
		delete(s.nameIndex, old)
	}
	delete(s.names, id)

	if name := doc.String(model.FieldNameLower); name != "" {
		s.nameIndex[name] = id
		s.names[id] = name
	}
}
