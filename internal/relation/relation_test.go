package relation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

var categories = map[int64]*models.ProductCategory{
	2: {ID: 2, Name: "Dairy"},
}

func lookupCategory(_ context.Context, id int64) (*models.ProductCategory, error) {
	c, ok := categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func decodeCategory(_ context.Context, raw json.RawMessage) (*models.ProductCategory, error) {
	var payload struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperr.New(apperr.TypeValidation, "expected an object")
	}
	if payload.Name == nil || *payload.Name == "" {
		return nil, apperr.FieldError(apperr.BusinessValidation, "name", "this field is required")
	}
	return &models.ProductCategory{Name: *payload.Name}, nil
}

func TestResolverByID(t *testing.T) {
	r := Resolver[*models.ProductCategory]{Field: "category", Mode: ByID, Lookup: lookupCategory}
	ctx := context.Background()

	t.Run("resolves an existing id", func(t *testing.T) {
		c, ok, err := r.Resolve(ctx, json.RawMessage(`2`))
		if err != nil || !ok {
			t.Fatalf("Resolve() error = %v, ok = %v", err, ok)
		}
		if c.Name != "Dairy" {
			t.Errorf("got %q, want Dairy", c.Name)
		}
	})

	t.Run("missing id is NotFound", func(t *testing.T) {
		_, _, err := r.Resolve(ctx, json.RawMessage(`99`))
		if apperr.KindOf(err) != apperr.NotFound {
			t.Fatalf("expected NotFound, got %v", err)
		}
		var e *apperr.Error
		if !errors.As(err, &e) || e.Field != "category" {
			t.Errorf("expected error on field category, got %v", err)
		}
	})

	for _, input := range []string{`"2"`, `2.5`, `true`, `{"id":2}`, `[2]`} {
		t.Run("rejects "+input, func(t *testing.T) {
			_, _, err := r.Resolve(ctx, json.RawMessage(input))
			if apperr.KindOf(err) != apperr.TypeValidation {
				t.Errorf("expected TypeValidation, got %v", err)
			}
		})
	}

	t.Run("null is rejected unless nullable", func(t *testing.T) {
		if _, _, err := r.Resolve(ctx, json.RawMessage(`null`)); apperr.KindOf(err) != apperr.BusinessValidation {
			t.Errorf("expected BusinessValidation, got %v", err)
		}
		nullable := r
		nullable.Nullable = true
		_, ok, err := nullable.Resolve(ctx, json.RawMessage(`null`))
		if err != nil || ok {
			t.Errorf("expected accepted null, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("storage failures are not client errors", func(t *testing.T) {
		broken := r
		broken.Lookup = func(context.Context, int64) (*models.ProductCategory, error) {
			return nil, errors.New("disk on fire")
		}
		_, _, err := broken.Resolve(ctx, json.RawMessage(`2`))
		if err == nil || apperr.KindOf(err) != apperr.Internal {
			t.Errorf("expected internal error, got %v", err)
		}
	})
}

func TestResolverFullObject(t *testing.T) {
	r := Resolver[*models.ProductCategory]{Field: "category", Decode: decodeCategory}
	ctx := context.Background()

	c, ok, err := r.Resolve(ctx, json.RawMessage(`{"name":"Bakery"}`))
	if err != nil || !ok || c.Name != "Bakery" {
		t.Fatalf("Resolve() = %+v, %v, %v", c, ok, err)
	}

	_, _, err = r.Resolve(ctx, json.RawMessage(`2`))
	if apperr.KindOf(err) != apperr.TypeValidation {
		t.Errorf("a bare id must fail full-object validation, got %v", err)
	}

	_, _, err = r.Resolve(ctx, json.RawMessage(`{}`))
	var e *apperr.Error
	if !errors.As(err, &e) || e.Field != "name" {
		t.Errorf("nested field error must keep its field, got %v", err)
	}
}

func lookupProduct(_ context.Context, id int64) (*models.Product, error) {
	if id == 3 || id == 4 {
		return &models.Product{ID: id, Name: fmt.Sprintf("p%d", id)}, nil
	}
	return nil, storage.ErrNotFound
}

func TestDecodeItems(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		body      string
		wantItems int
		wantErrs  []string
	}{
		{name: "valid items", body: `[{"product":3,"price":10},{"product":4,"price":0}]`, wantItems: 2},
		{name: "empty list", body: `[]`, wantItems: 0},
		{name: "negative price", body: `[{"product":3,"price":-1}]`, wantErrs: []string{"price cannot be negative (-1)"}},
		{name: "missing price", body: `[{"product":3}]`, wantErrs: []string{"fields 'product' and 'price' are required"}},
		{name: "string price", body: `[{"product":3,"price":"10"}]`, wantErrs: []string{"must be integers"}},
		{name: "not an object", body: `[3]`, wantErrs: []string{"values must be objects"}},
		{name: "unknown product", body: `[{"product":9,"price":1}]`, wantErrs: []string{"object with id '9' does not exist"}},
		{name: "not a list", body: `{"product":3,"price":1}`, wantErrs: []string{"expected a list of items"}},
		{
			name:     "collects one error per bad item",
			body:     `[{"product":9,"price":1},{"product":3,"price":1},{"product":3,"price":-5}]`,
			wantErrs: []string{"'9'", "(-5)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, errs, err := DecodeItems(ctx, json.RawMessage(tt.body), lookupProduct)
			if err != nil {
				t.Fatalf("DecodeItems() error = %v", err)
			}
			if len(tt.wantErrs) == 0 {
				if !errs.Empty() {
					t.Fatalf("unexpected item errors: %v", errs.Messages)
				}
				if len(items) != tt.wantItems {
					t.Errorf("got %d items, want %d", len(items), tt.wantItems)
				}
				return
			}
			if items != nil {
				t.Errorf("expected no items on failure, got %v", items)
			}
			if errs.Empty() || len(errs.Messages) != len(tt.wantErrs) {
				t.Fatalf("got errors %v, want %d", errs, len(tt.wantErrs))
			}
			for i, want := range tt.wantErrs {
				if !strings.Contains(errs.Messages[i], want) {
					t.Errorf("error %d = %q, want it to mention %q", i, errs.Messages[i], want)
				}
			}
		})
	}
}
