package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

// CreatePurchase persists a purchase and its line items in one transaction.
func (s *SQLiteStore) CreatePurchase(ctx context.Context, purchase *models.Purchase, items []models.ItemInput) error {
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO purchases (user_id, created_at) VALUES (?, ?)",
		int64OrNull(purchase.UserID), purchase.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	purchase.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read purchase id: %w", err)
	}

	for _, item := range items {
		if err := insertLineItem(ctx, tx, purchase.ID, item.Product.ID, item.Price); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPurchase retrieves a purchase by ID with its owner and line items.
func (s *SQLiteStore) GetPurchase(ctx context.Context, id int64) (*models.Purchase, error) {
	purchase, err := scanPurchase(s.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM purchases WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("purchase %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	if err := s.loadPurchaseRelations(ctx, []*models.Purchase{purchase}); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListPurchases returns a page of purchases ordered by ID.
func (s *SQLiteStore) ListPurchases(ctx context.Context, filter storage.PurchaseFilter, page storage.Page) ([]*models.Purchase, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.GroupID != nil {
		where = append(where, "user_id IN (SELECT id FROM users WHERE roommates_group_id = ?)")
		args = append(args, *filter.GroupID)
	}
	if filter.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	total, err := count(ctx, s.db, "SELECT COUNT(*) FROM purchases"+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, created_at FROM purchases"+cond+" ORDER BY id"+limitClause(page),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate purchases: %w", err)
	}
	rows.Close()

	if err := s.loadPurchaseRelations(ctx, purchases); err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

// DeletePurchase removes a purchase; its line items cascade.
func (s *SQLiteStore) DeletePurchase(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "purchases", id)
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	purchase := &models.Purchase{}
	var (
		userID    sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&purchase.ID, &userID, &createdAt); err != nil {
		return nil, err
	}
	purchase.UserID = int64FromNull(userID)
	purchase.CreatedAt = time.Unix(createdAt, 0).UTC()
	return purchase, nil
}

// loadPurchaseRelations fills owners and line items for a batch of purchases.
func (s *SQLiteStore) loadPurchaseRelations(ctx context.Context, purchases []*models.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}

	var userIDs []int64
	seen := make(map[int64]bool)
	purchaseIDs := make([]any, len(purchases))
	byID := make(map[int64]*models.Purchase, len(purchases))
	for i, p := range purchases {
		purchaseIDs[i] = p.ID
		byID[p.ID] = p
		if p.UserID != nil && !seen[*p.UserID] {
			seen[*p.UserID] = true
			userIDs = append(userIDs, *p.UserID)
		}
	}

	owners, err := s.usersByIDs(ctx, userIDs)
	if err != nil {
		return err
	}
	for _, p := range purchases {
		if p.UserID != nil {
			p.User = owners[*p.UserID]
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pp.id, pp.purchase_id, pp.product_id, pp.price, p.name, c.id, c.name
		FROM product_purchases AS pp
		LEFT JOIN products AS p ON p.id = pp.product_id
		LEFT JOIN product_categories AS c ON c.id = p.category_id
		WHERE pp.purchase_id IN (`+placeholders(len(purchaseIDs))+`)
		ORDER BY pp.id`,
		purchaseIDs...,
	)
	if err != nil {
		return fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item         models.LineItem
			productID    sql.NullInt64
			productName  sql.NullString
			categoryID   sql.NullInt64
			categoryName sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.PurchaseID, &productID, &item.Price,
			&productName, &categoryID, &categoryName); err != nil {
			return fmt.Errorf("failed to scan line item: %w", err)
		}
		item.ProductID = int64FromNull(productID)
		if productID.Valid {
			item.Product = &models.Product{
				ID:         productID.Int64,
				Name:       productName.String,
				CategoryID: categoryID.Int64,
				Category:   &models.ProductCategory{ID: categoryID.Int64, Name: categoryName.String},
			}
		}
		p := byID[item.PurchaseID]
		p.Items = append(p.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate line items: %w", err)
	}
	return nil
}

// usersByIDs retrieves multiple users by their IDs.
// Users that don't exist are omitted from the result.
func (s *SQLiteStore) usersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+userColumns+userFrom+" WHERE u.id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
