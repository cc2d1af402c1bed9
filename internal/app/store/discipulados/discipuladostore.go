// internal/app/store/discipulados/discipuladostore.go
package discipuladostore

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

var ErrDuplicateDiscipuladoName = errors.New("a discipulado with this name already exists in the matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("discipulados")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Discipulado, error) {
	var d models.Discipulado
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Discipulado{}, err
	}
	return d, nil
}

func (s *Store) Create(ctx context.Context, d models.Discipulado) (models.Discipulado, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.NameCI = text.Fold(d.Name)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Discipulado{}, ErrDuplicateDiscipuladoName
		}
		return models.Discipulado{}, err
	}
	return d, nil
}

// UpdateInfo rewrites the discipulado's name and discipulador. A nil
// discipulador clears the assignment.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, discipuladorID *primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if discipuladorID == nil {
		update["$unset"] = bson.M{"discipulador_id": ""}
	} else {
		set["discipulador_id"] = *discipuladorID
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateDiscipuladoName
	}
	return err
}

func (s *Store) ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.Discipulado, error) {
	cur, err := s.c.Find(ctx, bson.M{"matrix_id": matrixID}, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Discipulado
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListByRede(ctx context.Context, redeID primitive.ObjectID) ([]models.Discipulado, error) {
	cur, err := s.c.Find(ctx, bson.M{"rede_id": redeID}, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Discipulado
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsWhereDiscipulador returns the discipulados the member leads in
// the matrix.
func (s *Store) IDsWhereDiscipulador(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return ids(ctx, s.c, bson.M{"matrix_id": matrixID, "discipulador_id": memberID})
}

// IDsInRedes returns every discipulado under the given redes.
func (s *Store) IDsInRedes(ctx context.Context, redeIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(redeIDs) == 0 {
		return nil, nil
	}
	return ids(ctx, s.c, bson.M{"rede_id": bson.M{"$in": redeIDs}})
}

// CountByRede is the delete precondition for redes.
func (s *Store) CountByRede(ctx context.Context, redeID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"rede_id": redeID})
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

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
