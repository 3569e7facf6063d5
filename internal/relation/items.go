package relation

import (
	"context"
	"encoding/json"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/models"
)

// ProductLookup fetches a product by primary key.
type ProductLookup func(ctx context.Context, id int64) (*models.Product, error)

// DecodeItems validates a list of {"product": <id>, "price": <int>} objects
// and resolves each product. Every item is checked; the returned list holds
// one message per invalid item, in order. Items are returned only when the
// list is empty. The error result is reserved for storage failures.
func DecodeItems(ctx context.Context, raw json.RawMessage, lookup ProductLookup) ([]models.ItemInput, *apperr.List, error) {
	errs := &apperr.List{Kind: apperr.BusinessValidation}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || isNull(raw) {
		errs.Add("expected a list of items")
		return nil, errs, nil
	}

	items := make([]models.ItemInput, 0, len(elems))
	for _, elem := range elems {
		productID, price, err := validateItem(elem)
		if err != nil {
			errs.Add("%s", err.Error())
			continue
		}
		product, err := Get(ctx, lookup, productID)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				errs.Add("%s", err.Error())
				continue
			}
			return nil, nil, err
		}
		items = append(items, models.ItemInput{Product: product, Price: price})
	}

	if !errs.Empty() {
		return nil, errs, nil
	}
	return items, nil, nil
}

// validateItem checks one line item payload: it must be an object holding
// integer "product" and "price" keys, and price must not be negative.
// Presence is checked by key, so a price of 0 is valid.
func validateItem(raw json.RawMessage) (productID, price int64, err error) {
	var fields map[string]json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &fields) != nil {
		return 0, 0, apperr.New(apperr.TypeValidation, "values must be objects")
	}

	rawProduct, hasProduct := fields["product"]
	rawPrice, hasPrice := fields["price"]
	if !hasProduct || !hasPrice {
		return 0, 0, apperr.New(apperr.BusinessValidation, "fields 'product' and 'price' are required")
	}

	productID, perr := ParseID(rawProduct)
	price, qerr := ParseID(rawPrice)
	if perr != nil || qerr != nil {
		return 0, 0, apperr.New(apperr.TypeValidation, "fields 'product' and 'price' must be integers")
	}
	if price < 0 {
		return 0, 0, apperr.New(apperr.BusinessValidation, "price cannot be negative (%d)", price)
	}
	return productID, price, nil
}
