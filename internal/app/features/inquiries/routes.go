// internal/app/features/inquiries/routes.go
package inquiries

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /inquiry.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeSave)
	return r
}
