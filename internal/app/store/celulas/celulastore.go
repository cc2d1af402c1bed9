// internal/app/store/celulas/celulastore.go
package celulastore

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

var ErrDuplicateCelulaName = errors.New("a célula with this name already exists in the matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("celulas")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Celula, error) {
	var c models.Celula
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Celula{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Celula) (models.Celula, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Celula{}, ErrDuplicateCelulaName
		}
		return models.Celula{}, err
	}
	return c, nil
}

// Update rewrites the mutable fields. Description arrives already
// sanitized. Nil pointers clear vice_leader_id; TraineeIDs nil leaves
// trainees untouched, an empty slice clears them.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string, leaderID primitive.ObjectID, viceLeaderID *primitive.ObjectID, traineeIDs []primitive.ObjectID) error {
	set := bson.M{
		"description": description,
		"updated_at":  time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if !leaderID.IsZero() {
		set["leader_id"] = leaderID
	}
	if viceLeaderID == nil {
		update["$unset"] = bson.M{"vice_leader_id": ""}
	} else {
		set["vice_leader_id"] = *viceLeaderID
	}
	if traineeIDs != nil {
		set["trainee_ids"] = traineeIDs
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateCelulaName
	}
	return err
}

func (s *Store) ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.Celula, error) {
	return s.list(ctx, bson.M{"matrix_id": matrixID})
}

func (s *Store) ListByDiscipulado(ctx context.Context, discipuladoID primitive.ObjectID) ([]models.Celula, error) {
	return s.list(ctx, bson.M{"discipulado_id": discipuladoID})
}

// ListByIDs loads células by id, used to expand a permission's célula
// set into full documents.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Celula, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.list(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Celula, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Celula
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsWhereLeader returns the células the member leads in the matrix.
func (s *Store) IDsWhereLeader(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return ids(ctx, s.c, bson.M{"matrix_id": matrixID, "leader_id": memberID})
}

// IDsWhereViceLeader returns the células the member vice-leads.
func (s *Store) IDsWhereViceLeader(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return ids(ctx, s.c, bson.M{"matrix_id": matrixID, "vice_leader_id": memberID})
}

// IDsWhereTrainee returns the células where the member trains as a
// leader in training.
func (s *Store) IDsWhereTrainee(ctx context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return ids(ctx, s.c, bson.M{"matrix_id": matrixID, "trainee_ids": memberID})
}

// IDsInDiscipulados returns every célula under the given discipulados.
func (s *Store) IDsInDiscipulados(ctx context.Context, discIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(discIDs) == 0 {
		return nil, nil
	}
	return ids(ctx, s.c, bson.M{"discipulado_id": bson.M{"$in": discIDs}})
}

// CountByDiscipulado is the delete precondition for discipulados.
func (s *Store) CountByDiscipulado(ctx context.Context, discipuladoID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"discipulado_id": discipuladoID})
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
