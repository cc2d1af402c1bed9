// internal/app/features/celulas/crud.go
package celulas

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/ministrypolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/htmlsanitize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalidf("invalid %s", name)
	}
	return id, nil
}

type celulaRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	DiscipuladoID string   `json:"discipulado_id"`
	LeaderID      string   `json:"leader_id"`
	ViceLeaderID  *string  `json:"vice_leader_id"`
	TraineeIDs    []string `json:"trainee_ids"`
}

// HandleList returns the células visible to the requester: the whole
// matrix for admins, the permission's célula set for everyone else.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		out []models.Celula
		err error
	)
	if perm.IsAdmin {
		out, err = h.Celulas.ListByMatrix(ctx, principal.MatrixID)
	} else {
		out, err = h.Celulas.ListByIDs(ctx, perm.CelulaIDs)
	}
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if out == nil {
		out = []models.Celula{}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// HandleGet returns one célula. The entity is tenant-validated first
// so "exists in another matrix" and "does not exist" answer
// differently from "yours but not allowed".
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

	if err := h.Tenant.Celula(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	celula, err := h.Celulas.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, celula)
}

// HandleCreate creates a célula under a discipulado the requester
// oversees. The leader and every trainee are tenant-validated, the
// leader's ministry is auto-promoted when it does not yet carry
// leader standing, and a trainee equal to the leader is rejected.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req celulaRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	discipuladoID, err := primitive.ObjectIDFromHex(req.DiscipuladoID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid discipulado id"), h.Log)
		return
	}
	leaderID, err := primitive.ObjectIDFromHex(req.LeaderID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid leader id"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Discipulado(ctx, discipuladoID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !perm.IsAdmin && !containsID(perm.DiscipuladoIDs, discipuladoID) {
		apperr.Render(w, apperr.Forbiddenf("no authority over this discipulado"), h.Log)
		return
	}
	if err := h.Tenant.Member(ctx, leaderID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	vice, trainees, err := h.resolveLeadership(ctx, principal.MatrixID, leaderID, req.ViceLeaderID, req.TraineeIDs)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	var created models.Celula
	err = h.InTxn(ctx, func(sc context.Context) error {
		if err := h.ensureLeaderStanding(sc, principal.MatrixID, leaderID); err != nil {
			return err
		}
		var err error
		created, err = h.Celulas.Create(sc, models.Celula{
			Name:          req.Name,
			Description:   htmlsanitize.Sanitize(req.Description),
			DiscipuladoID: discipuladoID,
			LeaderID:      leaderID,
			ViceLeaderID:  vice,
			TraineeIDs:    trainees,
			MatrixID:      principal.MatrixID,
		})
		return err
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("célula created",
		zap.String("celula_id", created.ID.Hex()),
		zap.String("matrix_id", principal.MatrixID.Hex()))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdate rewrites a célula's mutable fields with the same
// validations as creation.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req celulaRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Celula(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	var leaderID primitive.ObjectID
	if req.LeaderID != "" {
		leaderID, err = primitive.ObjectIDFromHex(req.LeaderID)
		if err != nil {
			apperr.Render(w, apperr.Invalidf("invalid leader id"), h.Log)
			return
		}
		if err := h.Tenant.Member(ctx, leaderID, principal.MatrixID); err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
	} else {
		current, err := h.Celulas.GetByID(ctx, id)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		leaderID = current.LeaderID
	}

	vice, trainees, err := h.resolveLeadership(ctx, principal.MatrixID, leaderID, req.ViceLeaderID, req.TraineeIDs)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	err = h.InTxn(ctx, func(sc context.Context) error {
		if req.LeaderID != "" {
			if err := h.ensureLeaderStanding(sc, principal.MatrixID, leaderID); err != nil {
				return err
			}
		}
		return h.Celulas.Update(sc, id, req.Name, htmlsanitize.Sanitize(req.Description), leaderID, vice, trainees)
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleDelete removes a célula. The precondition: no member may still
// attend it. Reports are cascade-deleted in the same transaction.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Celula(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	err = h.InTxn(ctx, func(sc context.Context) error {
		n, err := h.Members.CountInCelula(sc, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Preconditionf("célula still has attached members")
		}
		if _, err := h.Reports.DeleteByCelula(sc, id); err != nil {
			return err
		}
		_, err = h.Celulas.Delete(sc, id)
		return err
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("célula deleted", zap.String("celula_id", id.Hex()))
	httpjson.NoContent(w)
}

// resolveLeadership parses and validates the optional vice-leader and
// trainee set: all tenant-validated, trainees distinct, and no trainee
// may be the leader.
func (h *Handler) resolveLeadership(ctx context.Context, matrixID, leaderID primitive.ObjectID, viceHex *string, traineeHex []string) (*primitive.ObjectID, []primitive.ObjectID, error) {
	var vice *primitive.ObjectID
	if viceHex != nil && *viceHex != "" {
		id, err := primitive.ObjectIDFromHex(*viceHex)
		if err != nil {
			return nil, nil, apperr.Invalidf("invalid vice-leader id")
		}
		if err := h.Tenant.Member(ctx, id, matrixID); err != nil {
			return nil, nil, err
		}
		vice = &id
	}

	trainees := make([]primitive.ObjectID, 0, len(traineeHex))
	seen := make(map[primitive.ObjectID]bool, len(traineeHex))
	for _, hex := range traineeHex {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, nil, apperr.Invalidf("invalid trainee id")
		}
		if id == leaderID {
			return nil, nil, apperr.Preconditionf("a leader in training cannot be the célula's leader")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := h.Tenant.Member(ctx, id, matrixID); err != nil {
			return nil, nil, err
		}
		trainees = append(trainees, id)
	}
	if traineeHex == nil {
		return vice, nil, nil
	}
	return vice, trainees, nil
}

// ensureLeaderStanding auto-promotes the member's ministry position to
// the matrix's LEADER ministry when their current type cannot lead.
func (h *Handler) ensureLeaderStanding(ctx context.Context, matrixID, memberID primitive.ObjectID) error {
	member, err := h.Members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	var currentType models.MinistryType
	if member.MinistryPositionID != nil {
		ministry, err := h.Ministries.GetByID(ctx, *member.MinistryPositionID)
		switch {
		case err == nil:
			currentType = ministry.Type
		case errors.Is(err, mongo.ErrNoDocuments):
			// Dangling position id counts as no standing.
		default:
			return err
		}
	}
	if ministrypolicy.CanBeLeader(currentType) {
		return nil
	}

	minType, _ := ministrypolicy.MinimumTypeFor(ministrypolicy.RoleLeader)
	target, err := h.Ministries.GetByType(ctx, matrixID, minType)
	if err != nil {
		return apperr.Wrap(apperr.PreconditionFailed, "matrix has no leader ministry to promote into", err)
	}
	h.Log.Info("promoting member to leader ministry",
		zap.String("member_id", memberID.Hex()),
		zap.String("ministry_id", target.ID.Hex()))
	return h.Members.SetMinistryPosition(ctx, memberID, &target.ID)
}

func containsID(ids []primitive.ObjectID, want primitive.ObjectID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
