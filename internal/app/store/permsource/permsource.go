// Package permsource is the read side backing the authorization
// policies. It implements the narrow lookup interfaces declared by
// permissions, tenantpolicy, grouppolicy and matrixdomain with
// minimal-projection queries, so the policy packages stay testable
// against in-memory fakes.
package permsource

import (
	"context"
	"strings"

	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

/*───────────────────────────────────────────────────────────────────*
| permissions.Source                                                  |
*───────────────────────────────────────────────────────────────────*/

func (s *Store) Member(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	err := s.db.Collection("members").FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) RolesByIDs(ctx context.Context, matrixID primitive.ObjectID, roleIDs []primitive.ObjectID) ([]models.Role, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	cur, err := s.db.Collection("roles").Find(ctx, bson.M{
		"_id":       bson.M{"$in": roleIDs},
		"matrix_id": matrixID,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Ministry(ctx context.Context, id primitive.ObjectID) (*models.Ministry, error) {
	var m models.Ministry
	err := s.db.Collection("ministries").FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CelulasWhereLeader(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, "celulas", bson.M{"matrix_id": matrixID, "leader_id": memberID})
}

func (s *Store) CelulasWhereViceLeader(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, "celulas", bson.M{"matrix_id": matrixID, "vice_leader_id": memberID})
}

func (s *Store) CelulasWhereTrainee(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, "celulas", bson.M{"matrix_id": matrixID, "trainee_ids": memberID})
}

func (s *Store) DiscipuladosWhereDiscipulador(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, "discipulados", bson.M{"matrix_id": matrixID, "discipulador_id": memberID})
}

func (s *Store) RedesWherePastor(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, "redes", bson.M{"matrix_id": matrixID, "pastor_id": memberID})
}

func (s *Store) DiscipuladosInRedes(ctx context.Context, redeIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(redeIDs) == 0 {
		return nil, nil
	}
	return s.ids(ctx, "discipulados", bson.M{"rede_id": bson.M{"$in": redeIDs}})
}

func (s *Store) CelulasInDiscipulados(ctx context.Context, discIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(discIDs) == 0 {
		return nil, nil
	}
	return s.ids(ctx, "celulas", bson.M{"discipulado_id": bson.M{"$in": discIDs}})
}

/*───────────────────────────────────────────────────────────────────*
| tenantpolicy.Source                                                 |
*───────────────────────────────────────────────────────────────────*/

func (s *Store) CelulaMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return s.matrixOf(ctx, "celulas", id)
}

func (s *Store) DiscipuladoMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return s.matrixOf(ctx, "discipulados", id)
}

func (s *Store) RedeMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return s.matrixOf(ctx, "redes", id)
}

func (s *Store) MinistryMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return s.matrixOf(ctx, "ministries", id)
}

func (s *Store) RoleMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return s.matrixOf(ctx, "roles", id)
}

func (s *Store) WinnerPathMatrix(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return s.matrixOf(ctx, "winner_paths", id)
}

func (s *Store) MemberExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.exists(ctx, "members", bson.M{"_id": id})
}

func (s *Store) HasMatrixMembership(ctx context.Context, memberID, matrixID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, "matrix_memberships", bson.M{"member_id": memberID, "matrix_id": matrixID})
}

/*───────────────────────────────────────────────────────────────────*
| grouppolicy.Source                                                  |
*───────────────────────────────────────────────────────────────────*/

func (s *Store) Group(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	err := s.db.Collection("groups").FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) Membership(ctx context.Context, groupID, memberID primitive.ObjectID) (*models.GroupMember, error) {
	var m models.GroupMember
	err := s.db.Collection("group_members").FindOne(ctx, bson.M{
		"group_id":  groupID,
		"member_id": memberID,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GroupRole(ctx context.Context, id primitive.ObjectID) (*models.GroupRole, error) {
	var r models.GroupRole
	err := s.db.Collection("group_roles").FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

/*───────────────────────────────────────────────────────────────────*
| matrixdomain.Source                                                 |
*───────────────────────────────────────────────────────────────────*/

func (s *Store) MatrixIDForDomain(ctx context.Context, domain string) (primitive.ObjectID, bool, error) {
	var row struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.db.Collection("matrices").FindOne(ctx,
		bson.M{"domains": strings.ToLower(domain)},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, false, nil
	}
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return row.ID, true, nil
}

/*───────────────────────────────────────────────────────────────────*
| helpers                                                             |
*───────────────────────────────────────────────────────────────────*/

func (s *Store) ids(ctx context.Context, coll string, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.db.Collection(coll).Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}

func (s *Store) matrixOf(ctx context.Context, coll string, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	var row struct {
		MatrixID primitive.ObjectID `bson:"matrix_id"`
	}
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"matrix_id": 1})).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, false, nil
	}
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return row.MatrixID, true, nil
}

func (s *Store) exists(ctx context.Context, coll string, filter bson.M) (bool, error) {
	err := s.db.Collection(coll).FindOne(ctx, filter,
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
