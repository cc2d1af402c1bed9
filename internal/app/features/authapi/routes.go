// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tokens *auth.TokenGate, perms *permissions.Gate) chi.Router {
	r := chi.NewRouter()

	// Public: these carry their own credentials in the body.
	r.Post("/login", h.HandleLogin)
	r.Post("/select-matrix", h.HandleSelectMatrix)
	r.Post("/set-password", h.HandleSetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(tokens.RequireToken)
		pr.Post("/refresh", h.HandleRefresh)

		pr.Group(func(ar chi.Router) {
			ar.Use(perms.Attach)
			ar.Post("/invite", h.HandleInvite)
		})
	})

	return r
}
