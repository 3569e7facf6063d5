package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/permission"
	"github.com/mmynk/hostel/internal/relation"
	"github.com/mmynk/hostel/internal/storage"
)

// ListPurchases lists the purchases visible to the requester: all of them
// for admins, the group's for group members, otherwise their own.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	if err := permission.Purchases.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var filter storage.PurchaseFilter
	if user := currentUser(r); !user.IsAdmin() {
		if groupID, ok := user.GroupID(); ok {
			filter.GroupID = &groupID
		} else {
			filter.UserID = &user.ID
		}
	}

	purchases, count, err := h.store.ListPurchases(r.Context(), filter, page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.pager.envelope(r, page, count, fieldset.RenderAll(configured(r, purchaseSchema()), purchases))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// loadPurchase runs both phases of table for /purchases/{id}.
func (h *Handler) loadPurchase(r *http.Request, table permission.Table) (*models.Purchase, error) {
	req := requester(r)
	if err := table.Authorize(req); err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	purchase, err := h.store.GetPurchase(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := table.AuthorizeObject(req, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.loadPurchase(r, permission.Purchases)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, purchaseSchema()).Render(purchase))
}

// CreatePurchase records a purchase. The owner is the requester unless an
// admin names another user.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	if err := permission.Purchases.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	owner, items, err := h.decodePurchase(r.Context(), currentUser(r), body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	purchase, err := h.purchases.Create(r.Context(), owner, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, configured(r, purchaseSchema()).Render(purchase))
}

func (h *Handler) decodePurchase(ctx context.Context, by *models.User, body map[string]json.RawMessage) (*models.User, []models.ItemInput, error) {
	var errs fieldErrors
	owner := by

	if raw, ok := body["user"]; ok {
		users := relation.Resolver[*models.User]{
			Field:    "user",
			Mode:     relation.ByID,
			Nullable: true,
			Lookup:   h.store.GetUserByID,
		}
		named, found, err := users.Resolve(ctx, raw)
		if err := errs.add(err); err != nil {
			return nil, nil, err
		}
		if found {
			if named.ID != by.ID && !by.IsAdmin() {
				return nil, nil, apperr.New(apperr.PermissionDenied, "you may only record your own purchases")
			}
			owner = named
		}
	}

	var items []models.ItemInput
	if raw, ok := body["products"]; ok {
		decoded, itemErrs, err := relation.DecodeItems(ctx, raw, h.store.GetProduct)
		if err != nil {
			return nil, nil, err
		}
		if !itemErrs.Empty() {
			for _, msg := range itemErrs.Messages {
				errs.push(apperr.FieldError(apperr.BusinessValidation, "products", "%s", msg))
			}
		}
		items = decoded
	} else {
		errs.push(missing("products"))
	}

	if err := errs.orNil(); err != nil {
		return nil, nil, err
	}
	return owner, items, nil
}

func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.loadPurchase(r, permission.Purchases)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeletePurchase(r.Context(), purchase.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Purchase deleted", "purchase_id", purchase.ID, "by", currentUser(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

// lineItems loads the purchase and decodes the body as a list of line items.
// Nothing is returned unless every item is valid.
func (h *Handler) lineItems(w http.ResponseWriter, r *http.Request) (*models.Purchase, []models.ItemInput, error) {
	purchase, err := h.loadPurchase(r, permission.PurchaseItems)
	if err != nil {
		return nil, nil, err
	}
	raw, err := decodeRaw(w, r)
	if err != nil {
		return nil, nil, err
	}
	items, itemErrs, err := relation.DecodeItems(r.Context(), raw, h.store.GetProduct)
	if err != nil {
		return nil, nil, err
	}
	if !itemErrs.Empty() {
		return nil, nil, itemErrs
	}
	return purchase, items, nil
}

// AddProducts appends line items and returns the updated purchase.
func (h *Handler) AddProducts(w http.ResponseWriter, r *http.Request) {
	purchase, items, err := h.lineItems(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.purchases.AddProducts(r.Context(), purchase.ID, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, purchaseSchema()).Render(updated))
}

// DeleteProducts removes one matching line item per input. Items with no
// match are reported with 400; the others are removed regardless.
func (h *Handler) DeleteProducts(w http.ResponseWriter, r *http.Request) {
	purchase, items, err := h.lineItems(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	unmatched, err := h.purchases.RemoveProducts(r.Context(), purchase.ID, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !unmatched.Empty() {
		writeError(w, r, unmatched)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
