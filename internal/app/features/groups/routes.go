// internal/app/features/groups/routes.go
package groups

import (
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/grouppolicy"
	"github.com/go-chi/chi/v5"
)

// Routes wires the group endpoints. Reads check membership inside the
// handler; mutations on a routed group sit behind the manage-group
// guard, which resolves the requester's permission set per request.
func Routes(h *Handler, guard *grouppolicy.Guard) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Post("/join", h.HandleJoin)

	r.Route("/{groupID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Delete("/", h.HandleDelete) // owner check inside
		r.Get("/roles", h.HandleListRoles)
		r.Get("/members", h.HandleListMembers)
		r.Delete("/leave", h.HandleLeave)

		r.Group(func(r chi.Router) {
			r.Use(guard.Require(grouppolicy.ManageGroup))
			r.Put("/", h.HandleUpdate)
			r.Post("/roles", h.HandleCreateRole)
			r.Put("/roles/{roleID}", h.HandleUpdateRole)
			r.Delete("/roles/{roleID}", h.HandleDeleteRole)
			r.Put("/members/{memberID}/role", h.HandleSetMemberRole)
			r.Delete("/members/{memberID}", h.HandleRemoveMember)
			r.Post("/invite/rotate", h.HandleRotateInvite)
		})
	})
	return r
}
