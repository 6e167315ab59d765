// internal/app/features/links/routes.go
package links

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /link.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)
	return r
}
