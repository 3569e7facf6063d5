// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/hostel/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// ConflictError reports which unique field a write collided on.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// Is makes errors.Is(err, ErrConflict) match a *ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Page selects a window of a list. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// PurchaseFilter narrows ListPurchases. Nil fields do not filter.
type PurchaseFilter struct {
	// GroupID keeps purchases whose owner currently belongs to this group.
	GroupID *int64

	// UserID keeps purchases owned by this user.
	UserID *int64
}

// GroupPurchaseRow is one row of the group purchases join:
// group → member → purchase → line item → product → category.
type GroupPurchaseRow struct {
	User    models.User
	Product models.Product
	Price   int64
}

// LineItemTx is the set of line item mutations available inside a transaction.
type LineItemTx interface {
	// AddLineItem inserts a line item unconditionally.
	AddLineItem(ctx context.Context, purchaseID, productID, price int64) error

	// DeleteLineItem deletes the first line item matching (purchase, product, price).
	// It reports whether a row was deleted.
	DeleteLineItem(ctx context.Context, purchaseID, productID, price int64) (bool, error)
}

// Store defines the interface for all persistence operations.
// This abstraction allows swapping storage backends without changing the service layer.
type Store interface {
	// CreateUser persists a new user. user.ID is populated by the store.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user with their group joined.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByUsername retrieves a user with their group joined.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// ListUsers returns a page of users ordered by ID and the total count.
	ListUsers(ctx context.Context, page Page) ([]*models.User, int, error)

	// UpdateUser writes the mutable profile fields and group membership.
	UpdateUser(ctx context.Context, user *models.User) error

	// SetLastLogin records a successful login.
	SetLastLogin(ctx context.Context, userID int64, at time.Time) error

	// DeleteUser removes a user. Their purchases are kept without an owner.
	DeleteUser(ctx context.Context, id int64) error

	// CreateGroup persists a new group and, when creatorID is non-zero,
	// makes the creator a member in the same transaction.
	CreateGroup(ctx context.Context, group *models.RoommatesGroup, creatorID int64) error

	// GetGroup retrieves a group with its members.
	GetGroup(ctx context.Context, id int64) (*models.RoommatesGroup, error)

	// ListGroups returns a page of groups with their members and the total count.
	ListGroups(ctx context.Context, page Page) ([]*models.RoommatesGroup, int, error)

	// UpdateGroup renames a group. CreatedAt is never changed.
	UpdateGroup(ctx context.Context, group *models.RoommatesGroup) error

	// DeleteGroup removes a group. Members are detached, not deleted.
	DeleteGroup(ctx context.Context, id int64) error

	// GroupPurchases returns every line item bought by the members of a group.
	GroupPurchases(ctx context.Context, groupID int64) ([]GroupPurchaseRow, error)

	CreateCategory(ctx context.Context, category *models.ProductCategory) error
	GetCategory(ctx context.Context, id int64) (*models.ProductCategory, error)
	ListCategories(ctx context.Context, page Page) ([]*models.ProductCategory, int, error)
	UpdateCategory(ctx context.Context, category *models.ProductCategory) error

	// DeleteCategory removes a category and all of its products.
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, product *models.Product) error

	// GetProduct retrieves a product with its category.
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page Page) ([]*models.Product, int, error)
	UpdateProduct(ctx context.Context, product *models.Product) error

	// DeleteProduct removes a product. Line items referencing it are kept.
	DeleteProduct(ctx context.Context, id int64) error

	// CreatePurchase persists a purchase and its line items in one transaction.
	CreatePurchase(ctx context.Context, purchase *models.Purchase, items []models.ItemInput) error

	// GetPurchase retrieves a purchase with its owner (and owner's group id)
	// and its line items with products and categories.
	GetPurchase(ctx context.Context, id int64) (*models.Purchase, error)

	// ListPurchases returns a page of fully loaded purchases and the total count.
	ListPurchases(ctx context.Context, filter PurchaseFilter, page Page) ([]*models.Purchase, int, error)

	// DeletePurchase removes a purchase and its line items.
	DeletePurchase(ctx context.Context, id int64) error

	// WithinTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx LineItemTx) error) error

	// Close releases any resources held by the store.
	Close() error
}
