// internal/app/system/permissions/resolver.go
package permissions

import (
	"context"
	"fmt"
	"sort"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source provides the reads the resolver needs. The Mongo-backed
// implementation lives in store/permsource; tests substitute an
// in-memory fake.
//
// All hierarchy queries are scoped by matrix so leaderships a member
// holds in a different matrix never leak into this session's
// permission.
type Source interface {
	// Member loads the member, or nil if it does not exist.
	Member(ctx context.Context, memberID primitive.ObjectID) (*models.Member, error)
	// RolesByIDs loads only roles that belong to the given matrix.
	RolesByIDs(ctx context.Context, matrixID primitive.ObjectID, roleIDs []primitive.ObjectID) ([]models.Role, error)
	// Ministry loads the ministry position, or nil if it does not exist.
	Ministry(ctx context.Context, ministryID primitive.ObjectID) (*models.Ministry, error)

	CelulasWhereLeader(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error)
	CelulasWhereViceLeader(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error)
	CelulasWhereTrainee(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error)
	DiscipuladosWhereDiscipulador(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error)
	RedesWherePastor(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error)

	DiscipuladosInRedes(ctx context.Context, redeIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	CelulasInDiscipulados(ctx context.Context, discipuladoIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Resolver computes permissions from current state. It holds no cache:
// two calls with no intervening writes return identical results, and a
// write between calls is visible to the second.
type Resolver struct {
	src Source
}

// NewResolver builds a resolver over the given source.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Load resolves the full permission for a member inside one matrix.
// A member with no roles, no ministry position and no leadership
// relation resolves to the zero Full value: every gated operation then
// denies by default.
func (r *Resolver) Load(ctx context.Context, memberID, matrixID primitive.ObjectID) (Full, error) {
	m, led, vice, trainees, discLed, redes, err := r.traverse(ctx, memberID, matrixID)
	if err != nil {
		return Full{}, err
	}

	isAdmin := false
	if len(m.RoleIDs) > 0 {
		roles, err := r.src.RolesByIDs(ctx, matrixID, m.RoleIDs)
		if err != nil {
			return Full{}, fmt.Errorf("load roles: %w", err)
		}
		for _, role := range roles {
			if role.IsAdmin {
				isAdmin = true
				break
			}
		}
	}

	var ministryType models.MinistryType
	if m.MinistryPositionID != nil {
		ministry, err := r.src.Ministry(ctx, *m.MinistryPositionID)
		if err != nil {
			return Full{}, fmt.Errorf("load ministry: %w", err)
		}
		if ministry != nil {
			ministryType = ministry.Type
		}
	}

	discUnderRedes, err := r.src.DiscipuladosInRedes(ctx, redes)
	if err != nil {
		return Full{}, fmt.Errorf("discipulados under redes: %w", err)
	}
	allDisc := dedup(discLed, discUnderRedes)

	celUnderDisc, err := r.src.CelulasInDiscipulados(ctx, allDisc)
	if err != nil {
		return Full{}, fmt.Errorf("células under discipulados: %w", err)
	}

	return Full{
		IsAdmin:            isAdmin,
		MinistryPositionID: m.MinistryPositionID,
		MinistryType:       ministryType,
		CelulaIDs:          dedup(led, vice, trainees, celUnderDisc),
		DiscipuladoIDs:     allDisc,
		RedeIDs:            dedup(redes),
	}, nil
}

// LoadSimplified runs the same traversal collapsed to four booleans
// plus the flat célula id set.
func (r *Resolver) LoadSimplified(ctx context.Context, memberID, matrixID primitive.ObjectID) (Simplified, error) {
	_, led, vice, trainees, discLed, redes, err := r.traverse(ctx, memberID, matrixID)
	if err != nil {
		return Simplified{}, err
	}

	discUnderRedes, err := r.src.DiscipuladosInRedes(ctx, redes)
	if err != nil {
		return Simplified{}, fmt.Errorf("discipulados under redes: %w", err)
	}
	celUnderDisc, err := r.src.CelulasInDiscipulados(ctx, dedup(discLed, discUnderRedes))
	if err != nil {
		return Simplified{}, fmt.Errorf("células under discipulados: %w", err)
	}

	return Simplified{
		IsLeader:       len(led) > 0,
		IsViceLeader:   len(vice) > 0,
		IsDiscipulador: len(discLed) > 0,
		IsPastor:       len(redes) > 0,
		CelulaIDs:      dedup(led, vice, trainees, celUnderDisc),
	}, nil
}

// traverse performs the direct-relationship reads shared by both
// loaders.
func (r *Resolver) traverse(ctx context.Context, memberID, matrixID primitive.ObjectID) (m *models.Member, led, vice, trainees, discLed, redes []primitive.ObjectID, err error) {
	m, err = r.src.Member(ctx, memberID)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("load member: %w", err)
	}
	if m == nil {
		return nil, nil, nil, nil, nil, nil, apperr.NotFoundf("member not found")
	}

	if led, err = r.src.CelulasWhereLeader(ctx, matrixID, memberID); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("células led: %w", err)
	}
	if vice, err = r.src.CelulasWhereViceLeader(ctx, matrixID, memberID); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("células vice-led: %w", err)
	}
	if trainees, err = r.src.CelulasWhereTrainee(ctx, matrixID, memberID); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("células in training: %w", err)
	}
	if discLed, err = r.src.DiscipuladosWhereDiscipulador(ctx, matrixID, memberID); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("discipulados led: %w", err)
	}
	if redes, err = r.src.RedesWherePastor(ctx, matrixID, memberID); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("redes pastored: %w", err)
	}
	return m, led, vice, trainees, discLed, redes, nil
}

// dedup merges id slices, removes duplicates and sorts by hex so the
// resolver's output is deterministic.
func dedup(sets ...[]primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	out := make([]primitive.ObjectID, 0)
	for _, set := range sets {
		for _, id := range set {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}
