package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

// PurchaseService implements purchase creation and line item mutations.
type PurchaseService struct {
	store storage.Store
}

// NewPurchaseService creates a new PurchaseService with the given storage backend.
func NewPurchaseService(store storage.Store) *PurchaseService {
	return &PurchaseService{store: store}
}

// Create records a purchase owned by owner with the given line items.
func (s *PurchaseService) Create(ctx context.Context, owner *models.User, items []models.ItemInput) (*models.Purchase, error) {
	purchase := &models.Purchase{
		UserID:    &owner.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePurchase(ctx, purchase, items); err != nil {
		return nil, err
	}

	slog.Info("Purchase created",
		"purchase_id", purchase.ID,
		"user_id", owner.ID,
		"items_count", len(items),
	)
	return s.store.GetPurchase(ctx, purchase.ID)
}

// AddProducts appends one line item per input, all in one transaction,
// and returns the updated purchase.
func (s *PurchaseService) AddProducts(ctx context.Context, purchaseID int64, items []models.ItemInput) (*models.Purchase, error) {
	err := s.store.WithinTx(ctx, func(tx storage.LineItemTx) error {
		for _, item := range items {
			if err := tx.AddLineItem(ctx, purchaseID, item.Product.ID, item.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add products to purchase %d: %w", purchaseID, err)
	}

	slog.Info("Products added", "purchase_id", purchaseID, "items_count", len(items))
	return s.store.GetPurchase(ctx, purchaseID)
}

// RemoveProducts deletes, for each input, the first line item of the
// purchase with the same product and price. Inputs with no match are
// reported in the returned list while the matched ones are still deleted.
// The list is nil when every input matched. A storage failure rolls back
// the whole call.
func (s *PurchaseService) RemoveProducts(ctx context.Context, purchaseID int64, items []models.ItemInput) (*apperr.List, error) {
	var missing *apperr.List
	removed := 0

	err := s.store.WithinTx(ctx, func(tx storage.LineItemTx) error {
		for _, item := range items {
			ok, err := tx.DeleteLineItem(ctx, purchaseID, item.Product.ID, item.Price)
			if err != nil {
				return err
			}
			if !ok {
				if missing == nil {
					missing = &apperr.List{Kind: apperr.BusinessValidation}
				}
				missing.Add("line item (purchase %d, product %d, price %d) does not exist",
					purchaseID, item.Product.ID, item.Price)
				continue
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove products from purchase %d: %w", purchaseID, err)
	}

	slog.Info("Products removed",
		"purchase_id", purchaseID,
		"removed", removed,
		"missing", len(items)-removed,
	)
	return missing, nil
}
