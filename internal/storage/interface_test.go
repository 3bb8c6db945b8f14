package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playeraccounts/internal/model"
)

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, ByUUID("x").Validate())
	assert.NoError(t, ByNameLower("x").Validate())
	assert.ErrorIs(t, Filter{Field: "name", Value: "Ben"}.Validate(), ErrUnsupportedFilter)
}

func TestFieldUpdates(t *testing.T) {
	updates, err := FieldUpdates(model.FieldRole, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{model.FieldRole: "ADMIN"}, updates)

	updates, err = FieldUpdates(model.FieldName, "Notch")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{model.FieldName: "Notch", model.FieldNameLower: "notch"}, updates)

	_, err = FieldUpdates(model.FieldUUID, "other")
	assert.ErrorIs(t, err, ErrImmutableField)

	_, err = FieldUpdates(model.FieldNameLower, "other")
	assert.ErrorIs(t, err, ErrImmutableField)

	_, err = FieldUpdates(model.FieldName, 12)
	assert.ErrorIs(t, err, model.ErrMalformedDocument)
}

func TestUnavailable(t *testing.T) {
	assert.NoError(t, Unavailable(nil))

	cause := errors.New("dial tcp: connection refused")
	err := Unavailable(cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, err, Unavailable(err))

	for _, kept := range []error{
		model.ErrDocumentNotFound,
		fmt.Errorf("%w: bad json", model.ErrMalformedDocument),
		ErrUnsupportedFilter,
		ErrImmutableField,
	} {
		assert.NotErrorIs(t, Unavailable(kept), ErrUnavailable, kept.Error())
	}
}
