package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PreviousAddress is a network address an account has connected from
type PreviousAddress struct {
	Value      string
	LastUsedOn int64 // epoch millis
}

// Account is a persistent player account.
//
// Accounts are shared between the cache and its readers, so every mutable
// field is guarded by mu. The identity never changes once assigned.
type Account struct {
	id uuid.UUID

	mu                sync.RWMutex
	name              string
	previousNames     []string
	role              Role
	currentAddress    string
	previousAddresses []PreviousAddress
	extensions        map[string]any
	raw               Document
}

// NewFromLogin creates an account from the data a client presents at login.
// The account has no stored document until it is written and fetched again.
func NewFromLogin(id uuid.UUID, name, address string) *Account {
	return &Account{
		id:                id,
		name:              name,
		role:              RolePlayer,
		currentAddress:    address,
		previousNames:     []string{},
		previousAddresses: []PreviousAddress{},
		extensions:        make(map[string]any),
	}
}

// FromDocument populates an account from a stored document. Missing optional
// fields default to empty values; a missing identity or unknown role is an error.
func FromDocument(doc Document) (*Account, error) {
	rawID := doc.String(FieldUUID)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad uuid %q: %v", ErrMalformedDocument, rawID, err)
	}

	role := RolePlayer
	if s := doc.String(FieldRole); s != "" {
		role, err = ParseRole(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
	}

	a := &Account{
		id:                id,
		name:              doc.String(FieldName),
		previousNames:     stringSlice(doc[FieldPreviousNames]),
		role:              role,
		currentAddress:    doc.String(FieldCurrentAddress),
		previousAddresses: []PreviousAddress{},
		extensions:        make(map[string]any),
		raw:               doc,
	}

	for _, entry := range objectSlice(doc[FieldPreviousAddresses]) {
		value, _ := entry[FieldAddressValue].(string)
		lastUsed, _ := toInt64(entry[FieldAddressLastUsed])
		a.previousAddresses = append(a.previousAddresses, PreviousAddress{Value: value, LastUsedOn: lastUsed})
	}

	return a, nil
}

// ID returns the account's UUID
func (a *Account) ID() uuid.UUID {
	return a.id
}

// Username returns the current display name
func (a *Account) Username() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// Role returns the current role
func (a *Account) Role() Role {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.role
}

// CurrentAddress returns the address of the current session
func (a *Account) CurrentAddress() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentAddress
}

// PreviousUsernames returns a copy of the name history, oldest first
func (a *Account) PreviousUsernames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string{}, a.previousNames...)
}

// PreviousAddresses returns a copy of the address history
func (a *Account) PreviousAddresses() []PreviousAddress {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]PreviousAddress{}, a.previousAddresses...)
}

// Populated reports whether the account was loaded from a stored document
func (a *Account) Populated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.raw != nil
}

// ReadExtra returns the value stored under key in the last loaded document
func (a *Account) ReadExtra(key string) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.raw == nil {
		return nil, ErrNotPopulated
	}
	v, ok := a.raw[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrExtraNotFound, key)
	}
	return v, nil
}

// ReadExtraString is ReadExtra for string values
func (a *Account) ReadExtraString(key string) (string, error) {
	return Extra[string](a, key)
}

// HasExtra reports whether the last loaded document holds key. Accounts that
// were never loaded hold nothing.
func (a *Account) HasExtra(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.raw == nil {
		return false
	}
	_, ok := a.raw[key]
	return ok
}

// SetExtra stores a value to be merged into the document on the next write.
// It does not persist anything by itself.
func (a *Account) SetExtra(key string, value any) error {
	if IsReservedKey(key) {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.extensions[key] = value
	return nil
}

// ApplyRole swaps the in-memory role and returns the previous one
func (a *Account) ApplyRole(role Role) Role {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.role
	a.role = role
	return prev
}

// RevertRole restores prev only if the role is still expected. It reports
// whether the role was restored.
func (a *Account) RevertRole(expected, prev Role) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.role != expected {
		return false
	}
	a.role = prev
	return true
}

// RecordLogin folds the name and address presented at login into the
// account's history
func (a *Account) RecordLogin(name, address string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if name != "" && name != a.name {
		if a.name != "" {
			a.previousNames = append(a.previousNames, a.name)
		}
		a.name = name
	}

	if address == "" || address == a.currentAddress {
		return
	}
	if a.currentAddress != "" {
		a.rememberAddress(a.currentAddress, at.UnixMilli())
	}
	a.currentAddress = address
}

// rememberAddress refreshes or appends an address history entry. mu must be held.
func (a *Account) rememberAddress(value string, lastUsed int64) {
	for i := range a.previousAddresses {
		if a.previousAddresses[i].Value == value {
			a.previousAddresses[i].LastUsedOn = lastUsed
			return
		}
	}
	a.previousAddresses = append(a.previousAddresses, PreviousAddress{Value: value, LastUsedOn: lastUsed})
}

// ToDocument serializes the account. Unknown keys of the loaded document are
// carried over, the lower-cased name index is always derived from the current
// name, and extension values are merged in last.
func (a *Account) ToDocument() Document {
	a.mu.RLock()
	defer a.mu.RUnlock()

	doc := make(Document, len(a.raw)+len(reservedKeys)+len(a.extensions))
	for k, v := range a.raw {
		if !IsReservedKey(k) {
			doc[k] = cloneValue(v)
		}
	}

	names := make([]any, len(a.previousNames))
	for i, n := range a.previousNames {
		names[i] = n
	}

	addresses := make([]any, len(a.previousAddresses))
	for i, pa := range a.previousAddresses {
		addresses[i] = map[string]any{
			FieldAddressValue:    pa.Value,
			FieldAddressLastUsed: pa.LastUsedOn,
		}
	}

	doc[FieldUUID] = a.id.String()
	doc[FieldName] = a.name
	doc[FieldNameLower] = strings.ToLower(a.name)
	doc[FieldRole] = string(a.role)
	doc[FieldPreviousNames] = names
	doc[FieldCurrentAddress] = a.currentAddress
	doc[FieldPreviousAddresses] = addresses

	for k, v := range a.extensions {
		doc[k] = v
	}
	return doc
}

// Extra reads a raw document value as T. Numbers are converted between the
// integer and float representations used by the different stores.
func Extra[T any](a *Account, key string) (T, error) {
	var zero T

	v, err := a.ReadExtra(key)
	if err != nil {
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	if t, ok := coerceNumber[T](v); ok {
		return t, nil
	}
	return zero, fmt.Errorf("%w: %q holds %T", ErrExtraType, key, v)
}

func coerceNumber[T any](v any) (T, bool) {
	var zero T
	var out any

	switch any(zero).(type) {
	case int:
		n, ok := toInt64(v)
		if !ok {
			return zero, false
		}
		out = int(n)
	case int32:
		n, ok := toInt64(v)
		if !ok {
			return zero, false
		}
		out = int32(n)
	case int64:
		n, ok := toInt64(v)
		if !ok {
			return zero, false
		}
		out = n
	case float64:
		f, ok := toFloat64(v)
		if !ok {
			return zero, false
		}
		out = f
	default:
		return zero, false
	}

	return out.(T), true
}
