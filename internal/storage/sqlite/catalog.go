package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

// CreateCategory inserts a new product category.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.ProductCategory) error {
	res, err := s.db.ExecContext(ctx, "INSERT INTO product_categories (name) VALUES (?)", category.Name)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	category.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*models.ProductCategory, error) {
	category := &models.ProductCategory{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM product_categories WHERE id = ?", id,
	).Scan(&category.ID, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// ListCategories returns a page of categories ordered by ID.
func (s *SQLiteStore) ListCategories(ctx context.Context, page storage.Page) ([]*models.ProductCategory, int, error) {
	total, err := count(ctx, s.db, "SELECT COUNT(*) FROM product_categories")
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM product_categories ORDER BY id"+limitClause(page))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.ProductCategory
	for rows.Next() {
		category := &models.ProductCategory{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, 0, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, total, nil
}

// UpdateCategory renames a category.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, category *models.ProductCategory) error {
	res, err := s.db.ExecContext(ctx, "UPDATE product_categories SET name = ? WHERE id = ?", category.Name, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectOneRow(res, "product_categories", category.ID)
}

// DeleteCategory removes a category; its products cascade.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "product_categories", id)
}

const productSelect = `
	SELECT p.id, p.name, c.id, c.name
	FROM products AS p
	JOIN product_categories AS c ON c.id = p.category_id`

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{Category: &models.ProductCategory{}}
	if err := row.Scan(&product.ID, &product.Name, &product.Category.ID, &product.Category.Name); err != nil {
		return nil, err
	}
	product.CategoryID = product.Category.ID
	return product, nil
}

// CreateProduct inserts a new product.
func (s *SQLiteStore) CreateProduct(ctx context.Context, product *models.Product) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO products (name, category_id) VALUES (?, ?)",
		product.Name, product.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	product.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read product id: %w", err)
	}
	return nil
}

// GetProduct retrieves a product with its category.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := scanProduct(s.db.QueryRowContext(ctx, productSelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListProducts returns a page of products ordered by ID.
func (s *SQLiteStore) ListProducts(ctx context.Context, page storage.Page) ([]*models.Product, int, error) {
	total, err := count(ctx, s.db, "SELECT COUNT(*) FROM products")
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, productSelect+" ORDER BY p.id"+limitClause(page))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct writes the product's name and category.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET name = ?, category_id = ? WHERE id = ?",
		product.Name, product.CategoryID, product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOneRow(res, "products", product.ID)
}

// DeleteProduct removes a product; line items keep a NULL product_id.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "products", id)
}
