// Package api serves the REST interface under /api/v1.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mmynk/hostel/internal/auth"
	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/middleware"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/permission"
	"github.com/mmynk/hostel/internal/service"
	"github.com/mmynk/hostel/internal/storage"
)

// Root is the versioned API prefix.
const Root = "/api/v1"

// Deps are the collaborators the handlers need.
type Deps struct {
	Store         storage.Store
	JWT           *auth.JWTManager
	Authenticator auth.Authenticator
	Paginator     Paginator

	// CORSOrigins defaults to every origin.
	CORSOrigins []string

	// Metrics is optional; when set, requests are observed and /metrics is served.
	Metrics *middleware.Metrics
}

// Handler implements every endpoint.
type Handler struct {
	store         storage.Store
	jwt           *auth.JWTManager
	authenticator auth.Authenticator
	purchases     *service.PurchaseService
	groups        *service.GroupService
	pager         Paginator
}

// NewHandler wires the services over deps.Store.
func NewHandler(deps Deps) *Handler {
	pager := deps.Paginator
	if pager.PageSize == 0 {
		pager.PageSize = 10
	}
	if pager.MaxPageSize < pager.PageSize {
		pager.MaxPageSize = max(100, pager.PageSize)
	}
	return &Handler{
		store:         deps.Store,
		jwt:           deps.JWT,
		authenticator: deps.Authenticator,
		purchases:     service.NewPurchaseService(deps.Store),
		groups:        service.NewGroupService(deps.Store),
		pager:         pager,
	}
}

// NewRouter builds the HTTP handler: middleware stack, API routes and,
// when configured, the metrics endpoint.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(chimw.StripSlashes)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route(Root, func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.JWT, deps.Store))
		r.NotFound(notFound)
		r.MethodNotAllowed(methodNotAllowed)

		r.Post("/token", h.ObtainToken)
		r.Post("/token/refresh", h.RefreshToken)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Patch("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})

		r.Route("/roommates-groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/purchases", h.GroupPurchases)
			r.Get("/required-fields", requiredFields("name"))
			r.Get("/{id}", h.GetGroup)
			r.Put("/{id}", h.UpdateGroup)
			r.Delete("/{id}", h.DeleteGroup)
		})

		r.Route("/product-categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/required-fields", requiredFields("name"))
			r.Get("/{id}", h.GetCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Patch("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/required-fields", requiredFields("name", "category"))
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Patch("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", h.ListPurchases)
			r.Post("/", h.CreatePurchase)
			r.Get("/{id}", h.GetPurchase)
			r.Delete("/{id}", h.DeletePurchase)
			r.Post("/{id}/add-products", h.AddProducts)
			r.Post("/{id}/delete-products", h.DeleteProducts)
		})
	})

	return r
}

// requester describes the current request to the permission tables.
func requester(r *http.Request) permission.Request {
	return permission.Request{Method: r.Method, User: middleware.GetUser(r.Context())}
}

// currentUser is the authenticated user, or nil.
func currentUser(r *http.Request) *models.User {
	return middleware.GetUser(r.Context())
}

// configured applies the request's field selectors to schema.
func configured(r *http.Request, schema *fieldset.Schema) *fieldset.Schema {
	schema.Configure(fieldset.FromQuery(r.URL.Query(), schema.Params()...))
	return schema
}

func requiredFields(fields ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"required_fields": fields})
	}
}
