package permission

// rule adapts a pair of functions to Predicate. A nil fine check admits
// every object that passed the coarse check.
type rule struct {
	name   string
	coarse func(Request) bool
	fine   func(Request, Object) bool
}

func (p rule) HasPermission(r Request) bool { return p.coarse(r) }

func (p rule) HasObjectPermission(r Request, obj Object) bool {
	if p.fine == nil {
		return true
	}
	return p.fine(r, obj)
}

func (p rule) String() string { return p.name }

var (
	IsAuthenticated Predicate = rule{
		name:   "authenticated",
		coarse: Request.Authenticated,
	}

	// IsAdmin admits staff users.
	IsAdmin Predicate = rule{
		name: "admin",
		coarse: func(r Request) bool {
			return r.Authenticated() && r.User.IsAdmin()
		},
	}

	// IsOwner admits the user the object belongs to.
	IsOwner Predicate = rule{
		name:   "owner",
		coarse: Request.Authenticated,
		fine: func(r Request, obj Object) bool {
			owner, ok := obj.OwnerID()
			return ok && owner == r.User.ID
		},
	}

	// IsSameGroup admits members of the object's roommates group.
	IsSameGroup Predicate = rule{
		name:   "same group",
		coarse: Request.Authenticated,
		fine: func(r Request, obj Object) bool {
			mine, ok := r.User.GroupID()
			if !ok {
				return false
			}
			theirs, ok := obj.GroupID()
			return ok && mine == theirs
		},
	}

	IsAuthenticatedWithoutGroup Predicate = rule{
		name: "authenticated without group",
		coarse: func(r Request) bool {
			return r.Authenticated() && !r.User.HasGroup()
		},
	}

	IsAuthenticatedWithGroup Predicate = rule{
		name: "authenticated with group",
		coarse: func(r Request) bool {
			return r.Authenticated() && r.User.HasGroup()
		},
	}
)
