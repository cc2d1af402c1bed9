// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateRoleName = errors.New("a role with this name already exists in the matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Role{}, err
	}
	return r, nil
}

// GetByIDs loads roles by id, restricted to one matrix. Role ids from
// another matrix are silently dropped, which keeps cross-matrix role
// assignments inert.
func (s *Store) GetByIDs(ctx context.Context, matrixID primitive.ObjectID, ids []primitive.ObjectID) ([]models.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "matrix_id": matrixID})
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

func (s *Store) Create(ctx context.Context, r models.Role) (models.Role, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.NameCI = text.Fold(r.Name)
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Role{}, ErrDuplicateRoleName
		}
		return models.Role{}, err
	}
	return r, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, isAdmin *bool) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if isAdmin != nil {
		set["is_admin"] = *isAdmin
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateRoleName
	}
	return err
}

func (s *Store) ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.Role, error) {
	cur, err := s.c.Find(ctx, bson.M{"matrix_id": matrixID}, options.Find().SetSort(bson.M{"name_ci": 1}))
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

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
