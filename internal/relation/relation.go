// Package relation resolves related entities submitted on write.
//
// A relation field accepts either a full nested payload (validated by the
// related entity's own rules) or, in by-id mode, a bare integer primary key
// that is looked up in storage.
package relation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/storage"
)

// Mode selects the accepted input form of a relation field.
type Mode int

const (
	// FullObject requires a nested payload satisfying the entity's own validation.
	FullObject Mode = iota
	// ByID requires an integer primary key of an existing entity.
	ByID
)

// Resolver turns the submitted value of one relation field into an entity.
type Resolver[E any] struct {
	// Field is the input field name used in error messages.
	Field string

	Mode Mode

	// Nullable allows a JSON null, which resolves to no entity.
	Nullable bool

	// Lookup fetches an entity by primary key (ByID mode).
	Lookup func(ctx context.Context, id int64) (E, error)

	// Decode validates a full nested payload (FullObject mode).
	Decode func(ctx context.Context, raw json.RawMessage) (E, error)
}

// Resolve converts raw into an entity. The boolean is false only for an
// accepted null.
func (r Resolver[E]) Resolve(ctx context.Context, raw json.RawMessage) (E, bool, error) {
	var zero E

	if isNull(raw) {
		if r.Nullable {
			return zero, false, nil
		}
		return zero, false, apperr.FieldError(apperr.BusinessValidation, r.Field, "this field may not be null")
	}

	if r.Mode == FullObject {
		if r.Decode == nil {
			return zero, false, fmt.Errorf("relation %s: no decoder configured", r.Field)
		}
		e, err := r.Decode(ctx, raw)
		if err != nil {
			return zero, false, attribute(err, r.Field)
		}
		return e, true, nil
	}

	id, err := ParseID(raw)
	if err != nil {
		return zero, false, attribute(err, r.Field)
	}
	e, err := Get(ctx, r.Lookup, id)
	if err != nil {
		return zero, false, attribute(err, r.Field)
	}
	return e, true, nil
}

// ParseID accepts only a JSON integer.
func ParseID(raw json.RawMessage) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, apperr.New(apperr.TypeValidation, "must be an integer")
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, apperr.New(apperr.TypeValidation, "must be an integer")
	}
	id, err := n.Int64()
	if err != nil {
		return 0, apperr.New(apperr.TypeValidation, "must be an integer")
	}
	return id, nil
}

// Get looks up an entity by id, translating storage.ErrNotFound into a
// NotFound error naming the id.
func Get[E any](ctx context.Context, lookup func(context.Context, int64) (E, error), id int64) (E, error) {
	e, err := lookup(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		var zero E
		return zero, apperr.New(apperr.NotFound, "object with id '%d' does not exist", id)
	}
	if err != nil {
		var zero E
		return zero, fmt.Errorf("failed to resolve id %d: %w", id, err)
	}
	return e, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// attribute attaches field to client errors that don't name one yet.
func attribute(err error, field string) error {
	var e *apperr.Error
	if errors.As(err, &e) && e.Field == "" && field != "" {
		return e.OnField(field)
	}
	return err
}
