package models

import "time"

// RoommatesGroup represents people who live together and share purchases.
type RoommatesGroup struct {
	// ID is the primary key assigned by the store.
	ID int64

	// Name is the display name of the group (e.g., "Room 412").
	Name string

	// CreatedAt is the creation date. It is set once and never updated.
	CreatedAt time.Time

	// Users are the group members. Populated only by reads that join them.
	Users []*User
}

// GroupID returns the group's own ID.
func (g *RoommatesGroup) GroupID() (int64, bool) {
	return g.ID, true
}

// OwnerID reports no owner; groups are not owned by a single user.
func (g *RoommatesGroup) OwnerID() (int64, bool) {
	return 0, false
}
