// internal/app/features/celulas/routes.go
package celulas

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/multiply", h.HandleMultiply)
	r.Get("/{id}/reports", h.HandleListReports)
	r.Post("/{id}/reports", h.HandleCreateReport)
	return r
}
