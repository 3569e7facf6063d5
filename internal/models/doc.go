// Package models defines the core domain models for the hostel accounting backend.
//
// # Entities
//
//   - User: an account; optionally a member of exactly one RoommatesGroup
//   - RoommatesGroup: people living together who share purchase visibility
//   - ProductCategory: a kind of goods (e.g. "Dairy", "Household")
//   - Product: a named good belonging to one category
//   - Purchase: a shopping trip owned by a user, made of line items
//   - LineItem: one product bought at a price within a purchase
//
// # Relationships
//
// Relationships are held as IDs. Pointers to related models (User.RoommatesGroup,
// Purchase.User, LineItem.Product) are only populated by storage reads that join
// them, and are nil otherwise.
//
// # Deletion rules
//
//  1. Deleting a group detaches its members (RoommatesGroupID becomes nil)
//  2. Deleting a category deletes its products
//  3. Deleting a user orphans their purchases (UserID becomes nil)
//  4. Deleting a purchase deletes its line items
//  5. Deleting a product keeps line items that reference it (ProductID becomes nil)
package models
