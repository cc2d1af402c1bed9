// internal/app/features/matrices/routes.go
package matrices

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/current", h.HandleGetCurrent)
	r.Put("/current", h.HandleUpdateCurrent)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
