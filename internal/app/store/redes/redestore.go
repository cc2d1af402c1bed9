// internal/app/store/redes/redestore.go
package redestore

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

var ErrDuplicateRedeName = errors.New("a rede with this name already exists in the matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("redes")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Rede, error) {
	var r models.Rede
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Rede{}, err
	}
	return r, nil
}

func (s *Store) Create(ctx context.Context, r models.Rede) (models.Rede, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.NameCI = text.Fold(r.Name)
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Rede{}, ErrDuplicateRedeName
		}
		return models.Rede{}, err
	}
	return r, nil
}

// UpdateInfo rewrites the rede's name and pastor. A nil pastor clears
// the assignment.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, pastorID *primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if pastorID == nil {
		update["$unset"] = bson.M{"pastor_id": ""}
	} else {
		set["pastor_id"] = *pastorID
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateRedeName
	}
	return err
}

func (s *Store) ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.Rede, error) {
	cur, err := s.c.Find(ctx, bson.M{"matrix_id": matrixID}, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Rede
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsWherePastor returns the redes the member pastors in the matrix.
func (s *Store) IDsWherePastor(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return ids(ctx, s.c, bson.M{"matrix_id": matrixID, "pastor_id": memberID})
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ids runs a projection-only find and collects the _id values.
func ids(ctx context.Context, c *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
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
