package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/permission"
	"github.com/mmynk/hostel/internal/relation"
)

const catalogNameMaxLen = 63

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if err := permission.Categories.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories, count, err := h.store.ListCategories(r.Context(), page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.pager.envelope(r, page, count, fieldset.RenderAll(configured(r, categorySchema()), categories))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.loadCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, categorySchema()).Render(category))
}

func (h *Handler) loadCategory(r *http.Request) (*models.ProductCategory, error) {
	if err := permission.Categories.Authorize(requester(r)); err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.store.GetCategory(r.Context(), id)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := permission.Categories.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := decodeCategory(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateCategory(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Category created", "category_id", category.ID)
	writeJSON(w, http.StatusCreated, configured(r, categorySchema()).Render(category))
}

// UpdateCategory handles PUT and PATCH; name is the only writable field.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.loadCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, ok, fe := stringField(body, "name", r.Method == http.MethodPut, catalogNameMaxLen)
	if fe != nil {
		writeError(w, r, fe)
		return
	}
	if ok {
		category.Name = name
	}
	if err := h.store.UpdateCategory(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, categorySchema()).Render(category))
}

// DeleteCategory also deletes every product in the category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.loadCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteCategory(r.Context(), category.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Category deleted", "category_id", category.ID)
	w.WriteHeader(http.StatusNoContent)
}

// decodeCategory validates a full category payload.
func decodeCategory(body map[string]json.RawMessage) (*models.ProductCategory, error) {
	name, _, fe := stringField(body, "name", true, catalogNameMaxLen)
	if fe != nil {
		return nil, fe
	}
	return &models.ProductCategory{Name: name}, nil
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if err := permission.Products.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, count, err := h.store.ListProducts(r.Context(), page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.pager.envelope(r, page, count, fieldset.RenderAll(configured(r, productSchema()), products))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) loadProduct(r *http.Request) (*models.Product, error) {
	if err := permission.Products.Authorize(requester(r)); err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.store.GetProduct(r.Context(), id)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.loadProduct(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, productSchema()).Render(product))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := permission.Products.Authorize(requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	product := &models.Product{}
	if err := h.applyProductChanges(r.Context(), product, body, true); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Product created", "product_id", product.ID, "category_id", product.CategoryID)
	writeJSON(w, http.StatusCreated, configured(r, productSchema()).Render(product))
}

// UpdateProduct handles PUT (name and category required) and PATCH.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.loadProduct(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.applyProductChanges(r.Context(), product, body, r.Method == http.MethodPut); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateProduct(r.Context(), product); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configured(r, productSchema()).Render(product))
}

func (h *Handler) applyProductChanges(ctx context.Context, product *models.Product, body map[string]json.RawMessage, full bool) error {
	var errs fieldErrors

	if v, ok, fe := stringField(body, "name", full, catalogNameMaxLen); ok {
		product.Name = v
	} else {
		errs.push(fe)
	}

	categories := relation.Resolver[*models.ProductCategory]{
		Field:  "category",
		Mode:   relation.ByID,
		Lookup: h.store.GetCategory,
	}
	if raw, ok := body["category"]; ok {
		category, _, err := categories.Resolve(ctx, raw)
		if err := errs.add(err); err != nil {
			return err
		}
		if category != nil {
			product.CategoryID = category.ID
			product.Category = category
		}
	} else if full {
		errs.push(missing("category"))
	}

	return errs.orNil()
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.loadProduct(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteProduct(r.Context(), product.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Product deleted", "product_id", product.ID)
	w.WriteHeader(http.StatusNoContent)
}
