// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Post("/import", h.HandleImport)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Put("/{id}/ministry", h.HandleAssignMinistry)
	r.Put("/{id}/roles", h.HandleAssignRoles)
	r.Put("/{id}/celula", h.HandleAssignCelula)
	r.Post("/{id}/spouse", h.HandlePairSpouse)
	r.Delete("/{id}/spouse", h.HandleUnpairSpouse)
	r.Post("/{id}/enroll", h.HandleEnroll)
	r.Delete("/{id}/enroll", h.HandleUnenroll)
	return r
}
