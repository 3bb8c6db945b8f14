package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/playeraccounts/internal/model"
)

// ErrUnsupportedFilter is returned for filters on fields that are not indexed
var ErrUnsupportedFilter = errors.New("unsupported filter field")

// Filter is an equality predicate on a single indexed document field
type Filter struct {
	Field string
	Value string
}

// ByUUID matches the document whose uuid field equals id
func ByUUID(id string) Filter {
	return Filter{Field: model.FieldUUID, Value: id}
}

// ByNameLower matches the document whose lower-cased name index equals name.
// The caller is responsible for lower-casing.
func ByNameLower(name string) Filter {
	return Filter{Field: model.FieldNameLower, Value: name}
}

// Validate checks the filter targets an indexed field
func (f Filter) Validate() error {
	switch f.Field {
	case model.FieldUUID, model.FieldNameLower:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFilter, f.Field)
	}
}

// DocumentStore is the durable, multi-process-visible account store.
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	// FindOne returns the single document matching filter, or
	// model.ErrDocumentNotFound
	FindOne(ctx context.Context, filter Filter) (model.Document, error)

	// UpsertField sets one field on the matching document. A uuid filter
	// creates the document when it is missing; a name_lower filter never
	// creates one and returns model.ErrDocumentNotFound instead.
	UpsertField(ctx context.Context, filter Filter, field string, value any) error

	// Save writes a whole document keyed by its uuid, replacing any previous
	// version and keeping the name index current
	Save(ctx context.Context, doc model.Document) error

	// Ping checks the store is reachable
	Ping(ctx context.Context) error

	// Close releases store resources
	Close() error
}

// ErrImmutableField is returned when an update targets the account identity
var ErrImmutableField = errors.New("field cannot be updated")

// ErrUnavailable marks failures to reach or talk to the backing store
var ErrUnavailable = errors.New("document store unavailable")

// Unavailable wraps a backend error in ErrUnavailable. Errors that describe
// the request or the stored data are returned unchanged.
func Unavailable(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrUnavailable),
		errors.Is(err, model.ErrDocumentNotFound),
		errors.Is(err, model.ErrMalformedDocument),
		errors.Is(err, ErrUnsupportedFilter),
		errors.Is(err, ErrImmutableField):
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// FieldUpdates expands a single-field update into every field that must be
// written with it. Renames carry the derived lower-cased index along.
func FieldUpdates(field string, value any) (map[string]any, error) {
	switch field {
	case model.FieldUUID, model.FieldNameLower, "_id", "":
		return nil, fmt.Errorf("%w: %q", ErrImmutableField, field)
	}

	updates := map[string]any{field: value}
	if field == model.FieldName {
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: name must be a string, got %T", model.ErrMalformedDocument, value)
		}
		updates[model.FieldNameLower] = strings.ToLower(name)
	}
	return updates, nil
}

// DocumentID returns the uuid of a document that is about to be saved
func DocumentID(doc model.Document) (string, error) {
	id := doc.String(model.FieldUUID)
	if id == "" {
		return "", fmt.Errorf("%w: missing %s", model.ErrMalformedDocument, model.FieldUUID)
	}
	return id, nil
}
