package models

import "time"

// Purchase is a set of products bought by a user at one moment.
type Purchase struct {
	// ID is the primary key assigned by the store.
	ID int64

	// UserID is the owner. Nil once the owner's account was deleted.
	UserID *int64

	// User is populated by reads that join the owner (with the owner's group).
	User *User

	// CreatedAt is the purchase timestamp. It is set once and never updated.
	CreatedAt time.Time

	// Items are the purchase's line items, in insertion order.
	Items []LineItem
}

// OwnerID returns the ID of the purchase's owner.
func (p *Purchase) OwnerID() (int64, bool) {
	if p.UserID == nil {
		return 0, false
	}
	return *p.UserID, true
}

// GroupID returns the group of the purchase's owner at read time.
func (p *Purchase) GroupID() (int64, bool) {
	if p.User == nil {
		return 0, false
	}
	return p.User.GroupID()
}

// LineItem is one product at a price within a purchase.
// Price is non-negative; this is enforced when the item is decoded, not by storage.
type LineItem struct {
	ID         int64
	PurchaseID int64

	// ProductID is nil once the product was deleted.
	ProductID *int64

	// Product is populated by reads that join the product and its category.
	Product *Product

	Price int64
}

// ItemInput is a validated (product, price) pair submitted by a client.
type ItemInput struct {
	Product *Product
	Price   int64
}

// UserPurchases is one member's line items within a group purchase report.
type UserPurchases struct {
	User  *User
	Items []LineItem
}

// GroupPurchases is every line item bought by the members of a group,
// grouped by member in order of first appearance.
type GroupPurchases struct {
	Group *RoommatesGroup
	Users []UserPurchases
}
