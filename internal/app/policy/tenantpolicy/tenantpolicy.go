// Package tenantpolicy confirms that hierarchical entities belong to
// the matrix a request is operating in.
//
// Every mutation on a célula, discipulado, rede, ministry, role or
// winner path must validate (a) the entity being mutated and (b) every
// foreign-key id being attached to it. A missing entity is NotFound; an
// entity owned by another matrix is Forbidden, so callers can tell
// "does not exist" from "exists but not yours".
package tenantpolicy

import (
	"context"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source loads the matrix ownership of entities. Implementations use
// minimal projections; found is false when no document matches.
type Source interface {
	CelulaMatrix(ctx context.Context, id primitive.ObjectID) (matrixID primitive.ObjectID, found bool, err error)
	DiscipuladoMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error)
	RedeMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error)
	MinistryMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error)
	RoleMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error)
	WinnerPathMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error)
	MemberExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	HasMatrixMembership(ctx context.Context, memberID, matrixID primitive.ObjectID) (bool, error)
}

// Validator checks tenant ownership against a Source.
type Validator struct {
	src Source
}

// NewValidator builds a Validator over src.
func NewValidator(src Source) *Validator {
	return &Validator{src: src}
}

func check(entity string, got primitive.ObjectID, found bool, want primitive.ObjectID, err error) error {
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFoundf("%s not found", entity)
	}
	if got != want {
		return apperr.Forbiddenf("%s belongs to another matrix", entity)
	}
	return nil
}

// Celula validates that the célula exists and belongs to matrixID.
func (v *Validator) Celula(ctx context.Context, id, matrixID primitive.ObjectID) error {
	got, found, err := v.src.CelulaMatrix(ctx, id)
	return check("célula", got, found, matrixID, err)
}

// Discipulado validates that the discipulado exists and belongs to matrixID.
func (v *Validator) Discipulado(ctx context.Context, id, matrixID primitive.ObjectID) error {
	got, found, err := v.src.DiscipuladoMatrix(ctx, id)
	return check("discipulado", got, found, matrixID, err)
}

// Rede validates that the rede exists and belongs to matrixID.
func (v *Validator) Rede(ctx context.Context, id, matrixID primitive.ObjectID) error {
	got, found, err := v.src.RedeMatrix(ctx, id)
	return check("rede", got, found, matrixID, err)
}

// Ministry validates that the ministry position exists and belongs to matrixID.
func (v *Validator) Ministry(ctx context.Context, id, matrixID primitive.ObjectID) error {
	got, found, err := v.src.MinistryMatrix(ctx, id)
	return check("ministry", got, found, matrixID, err)
}

// Role validates that the role exists and belongs to matrixID.
func (v *Validator) Role(ctx context.Context, id, matrixID primitive.ObjectID) error {
	got, found, err := v.src.RoleMatrix(ctx, id)
	return check("role", got, found, matrixID, err)
}

// WinnerPath validates that the winner path exists and belongs to matrixID.
func (v *Validator) WinnerPath(ctx context.Context, id, matrixID primitive.ObjectID) error {
	got, found, err := v.src.WinnerPathMatrix(ctx, id)
	return check("winner path", got, found, matrixID, err)
}

// Member validates that the member exists and holds a membership in
// matrixID. Members are not owned by a single matrix, so ownership is
// checked against the membership join instead of a direct field.
func (v *Validator) Member(ctx context.Context, memberID, matrixID primitive.ObjectID) error {
	exists, err := v.src.MemberExists(ctx, memberID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFoundf("member not found")
	}
	ok, err := v.src.HasMatrixMembership(ctx, memberID, matrixID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbiddenf("member does not belong to this matrix")
	}
	return nil
}
