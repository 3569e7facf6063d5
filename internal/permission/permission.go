// Package permission evaluates per-method authorization tables.
//
// A Table maps an HTTP method to the predicates that may admit it. A
// request passes when any predicate admits it (OR). A method missing from
// the table is unrestricted, while a method mapped to an empty list admits
// nobody.
//
// Evaluation has two phases. Check runs before the target object is loaded
// and only sees the requester. CheckObject runs once the object is loaded.
package permission

import (
	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/models"
)

// Request is what predicates see of an incoming request.
type Request struct {
	Method string
	// User is nil for anonymous requests.
	User *models.User
}

// Authenticated reports whether the request carries an active user.
func (r Request) Authenticated() bool {
	return r.User != nil && r.User.IsActive
}

// Object is a loaded entity subject to a fine check.
type Object interface {
	OwnerID() (int64, bool)
	GroupID() (int64, bool)
}

// Predicate is a single rule checked in both phases.
type Predicate interface {
	HasPermission(r Request) bool
	HasObjectPermission(r Request, obj Object) bool
}

// Table maps methods to the predicates that admit them.
type Table map[string][]Predicate

// Check is the coarse phase.
func (t Table) Check(r Request) bool {
	preds, ok := t[r.Method]
	if !ok {
		return true
	}
	for _, p := range preds {
		if p.HasPermission(r) {
			return true
		}
	}
	return false
}

// CheckObject is the fine phase. A predicate admits the object only if it
// also passes its own coarse check.
func (t Table) CheckObject(r Request, obj Object) bool {
	preds, ok := t[r.Method]
	if !ok {
		return true
	}
	for _, p := range preds {
		if p.HasPermission(r) && p.HasObjectPermission(r, obj) {
			return true
		}
	}
	return false
}

// Authorize runs the coarse phase and returns the error to surface on denial.
func (t Table) Authorize(r Request) error {
	if t.Check(r) {
		return nil
	}
	return Denied(r)
}

// AuthorizeObject runs the fine phase and returns the error to surface on denial.
func (t Table) AuthorizeObject(r Request, obj Object) error {
	if t.CheckObject(r, obj) {
		return nil
	}
	return Denied(r)
}

// Denied is 401 for anonymous requests and 403 otherwise.
func Denied(r Request) error {
	if !r.Authenticated() {
		return apperr.New(apperr.Unauthenticated, "authentication credentials were not provided")
	}
	return apperr.New(apperr.PermissionDenied, "you do not have permission to perform this action")
}
