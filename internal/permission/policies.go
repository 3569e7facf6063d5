package permission

import "net/http"

var (
	// Purchases guards /purchases/ and /purchases/{id}.
	Purchases = Table{
		http.MethodGet:    {IsAdmin, IsSameGroup},
		http.MethodPost:   {IsAuthenticated},
		http.MethodDelete: {IsOwner, IsAdmin},
	}

	// PurchaseItems guards add-products and delete-products.
	PurchaseItems = Table{
		http.MethodPost: {IsOwner, IsAdmin},
	}

	// Groups guards /roommates-groups/ create and /roommates-groups/{id}.
	Groups = Table{
		http.MethodGet:    {IsSameGroup, IsAdmin},
		http.MethodPost:   {IsAuthenticatedWithoutGroup},
		http.MethodPut:    {IsSameGroup, IsAdmin},
		http.MethodDelete: {IsAdmin},
	}

	GroupList = Table{
		http.MethodGet: {IsAdmin},
	}

	GroupPurchases = Table{
		http.MethodGet: {IsAuthenticatedWithGroup},
	}

	// Users guards /users/{id}: the user themselves or an admin.
	Users = Table{
		http.MethodGet:    {IsOwner, IsAdmin},
		http.MethodPut:    {IsOwner, IsAdmin},
		http.MethodPatch:  {IsOwner, IsAdmin},
		http.MethodDelete: {IsOwner, IsAdmin},
	}

	UserList = Table{
		http.MethodGet: {IsAdmin},
	}

	// Categories are readable by anyone and writable by admins.
	Categories = Table{
		http.MethodPost:   {IsAdmin},
		http.MethodPut:    {IsAdmin},
		http.MethodPatch:  {IsAdmin},
		http.MethodDelete: {IsAdmin},
	}

	Products = Table{
		http.MethodGet:    {IsAuthenticated},
		http.MethodPost:   {IsAuthenticated},
		http.MethodPut:    {IsAuthenticated},
		http.MethodPatch:  {IsAuthenticated},
		http.MethodDelete: {IsAuthenticated},
	}
)
