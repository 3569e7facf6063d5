package models

import "time"

// User represents a registered account.
type User struct {
	// ID is the primary key assigned by the store.
	ID int64

	// Username is unique and used for login.
	Username string

	// Email is unique.
	Email string

	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the user's password. Never rendered.
	PasswordHash string

	// IsStaff grants administrative access to the API.
	IsStaff bool

	// IsSuperuser is informational; permission checks use IsStaff.
	IsSuperuser bool

	// IsActive users can log in. Inactive users are treated as anonymous.
	IsActive bool

	DateJoined time.Time

	// LastLogin is nil until the first successful token issuance.
	LastLogin *time.Time

	// RoommatesGroupID is the group this user belongs to, if any.
	RoommatesGroupID *int64

	// RoommatesGroup is populated by reads that join the group.
	RoommatesGroup *RoommatesGroup
}

// NewUser creates a new active user with the given credentials.
// The ID is assigned when the user is persisted.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}
}

// IsAdmin reports whether the user has administrative access.
func (u *User) IsAdmin() bool {
	return u != nil && u.IsStaff
}

// HasGroup reports whether the user currently belongs to a roommates group.
func (u *User) HasGroup() bool {
	return u != nil && u.RoommatesGroupID != nil
}

// OwnerID returns the user's own ID; a user owns their own account.
func (u *User) OwnerID() (int64, bool) {
	return u.ID, true
}

// GroupID returns the ID of the user's group.
func (u *User) GroupID() (int64, bool) {
	if u == nil || u.RoommatesGroupID == nil {
		return 0, false
	}
	return *u.RoommatesGroupID, true
}
