package model

import (
	"encoding/json"
	"math"
)

// Stored document field names. These are shared with existing account data and
// must not change.
const (
	FieldUUID              = "uuid"
	FieldName              = "name"
	FieldNameLower         = "name_lower"
	FieldRole              = "role"
	FieldPreviousNames     = "previous_names"
	FieldCurrentAddress    = "current_address"
	FieldPreviousAddresses = "previous_addresses"

	// Keys of each previous_addresses entry
	FieldAddressValue    = "value"
	FieldAddressLastUsed = "lastUsedOn"

	// fieldMongoID is the store-assigned primary key in MongoDB
	fieldMongoID = "_id"
)

// reservedKeys cannot be used for extension data
var reservedKeys = map[string]bool{
	FieldUUID:              true,
	FieldName:              true,
	FieldNameLower:         true,
	FieldRole:              true,
	FieldPreviousNames:     true,
	FieldCurrentAddress:    true,
	FieldPreviousAddresses: true,
	fieldMongoID:           true,
}

// IsReservedKey reports whether key belongs to a typed account field
func IsReservedKey(key string) bool {
	return reservedKeys[key]
}

// Document is the serialized form of an account as held by a document store.
// Values are JSON-like: strings, numbers, bools, nil, []any and map[string]any.
type Document map[string]any

// String returns the string stored under key, or "" if absent or not a string
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Clone returns a deep copy of the JSON-like portions of d
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// MarshalJSON encodes the document as a plain JSON object
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// DecodeJSON parses a JSON object into a Document, keeping numbers as
// float64 like encoding/json does
func DecodeJSON(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, (*map[string]any)(&doc)); err != nil {
		return nil, err
	}
	return doc, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Document:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// stringSlice reads a list of strings, tolerating []any and []string
func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// objectSlice reads a list of embedded objects
func objectSlice(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, m)
			case Document:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// toInt64 coerces the numeric representations produced by the JSON and BSON
// decoders
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
