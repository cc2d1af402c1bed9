// internal/app/features/members/crud.go
package members

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/htmlsanitize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/normalize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/paging"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/txn"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalidf("invalid %s", name)
	}
	return id, nil
}

// requireLeadership admits admins and members who lead anything.
// Plain members cannot browse the registry.
func requireLeadership(p permissions.Full) error {
	if p.IsAdmin || len(p.CelulaIDs) > 0 {
		return nil
	}
	return apperr.Forbiddenf("leadership required")
}

// canSeeMember reports whether the requester may read this member's
// record: themselves, an admin, or a leader whose célula set covers
// the member's célula.
func canSeeMember(p permissions.Full, requesterID primitive.ObjectID, m models.Member) bool {
	if p.IsAdmin || requesterID == m.ID {
		return true
	}
	if m.CelulaID != nil && permissions.HasCelulaAccess(p, *m.CelulaID) {
		return true
	}
	return false
}

type memberRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
}

type memberPage struct {
	Members    []models.Member `json:"members"`
	HasPrev    bool            `json:"has_prev"`
	HasNext    bool            `json:"has_next"`
	PrevCursor string          `json:"prev_cursor,omitempty"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// HandleList returns one keyset page of the matrix's members, ordered
// by name. Cursors are opaque; before wins over after.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := requireLeadership(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	before := r.URL.Query().Get("before")
	after := r.URL.Query().Get("after")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Memberships.MemberIDsInMatrix(ctx, principal.MatrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	rows, cfg, err := h.Members.ListPage(ctx, ids, before, after)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	res := paging.TrimPage(&rows, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := memberPage{Members: rows, HasPrev: res.HasPrev, HasNext: res.HasNext}
	if page.Members == nil {
		page.Members = []models.Member{}
	}
	prev, next := paging.BuildCursors(page.Members,
		func(m models.Member) string { return m.FullNameCI },
		func(m models.Member) primitive.ObjectID { return m.ID })
	if res.HasPrev {
		page.PrevCursor = prev
	}
	if res.HasNext {
		page.NextCursor = next
	}
	httpjson.Write(w, http.StatusOK, page)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !canSeeMember(perm, principal.MemberID, m) {
		apperr.Render(w, apperr.Forbiddenf("no authority over this member"), h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}

// HandleCreate registers a member and enrolls them in the session
// matrix atomically. Leadership required.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := requireLeadership(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if normalize.Name(req.FullName) == "" {
		apperr.Render(w, apperr.Invalidf("full name is required"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var created models.Member
	err := txn.Run(ctx, h.Client, h.Log, func(sc context.Context) error {
		var err error
		created, err = h.Members.Create(sc, models.Member{
			FullName: normalize.Name(req.FullName),
			Email:    normalize.Email(req.Email),
			Phone:    normalize.Phone(req.Phone),
			Notes:    htmlsanitize.Sanitize(req.Notes),
			Status:   models.StatusActive,
		})
		if err != nil {
			return err
		}
		return h.Memberships.Add(sc, created.ID, principal.MatrixID)
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("member created",
		zap.String("member_id", created.ID.Hex()),
		zap.String("matrix_id", principal.MatrixID.Hex()))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdate rewrites a member's profile fields. Members may edit
// themselves; otherwise leadership over the member is required.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req memberRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if normalize.Name(req.FullName) == "" {
		apperr.Render(w, apperr.Invalidf("full name is required"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !canSeeMember(perm, principal.MemberID, m) {
		apperr.Render(w, apperr.Forbiddenf("no authority over this member"), h.Log)
		return
	}
	err = h.Members.UpdateProfile(ctx, id,
		normalize.Name(req.FullName),
		normalize.Email(req.Email),
		normalize.Phone(req.Phone),
		htmlsanitize.Sanitize(req.Notes))
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleDelete removes a member entirely: spouse pairing, matrix
// memberships and the record itself, in one transaction. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := permissions.RequireAdmin(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	err = txn.Run(ctx, h.Client, h.Log, func(sc context.Context) error {
		if m.SpouseID != nil {
			if err := h.Members.ClearSpouse(sc, m.ID, *m.SpouseID); err != nil {
				return err
			}
		}
		if _, err := h.Memberships.DeleteByMember(sc, m.ID); err != nil {
			return err
		}
		_, err := h.Members.Delete(sc, m.ID)
		return err
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("member deleted", zap.String("member_id", id.Hex()))
	httpjson.NoContent(w)
}
