// internal/app/store/winnerpaths/winnerpathstore.go
package winnerpathstore

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

var ErrDuplicatePathName = errors.New("a winner path with this name already exists in the matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("winner_paths")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.WinnerPath, error) {
	var p models.WinnerPath
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.WinnerPath{}, err
	}
	return p, nil
}

func (s *Store) Create(ctx context.Context, p models.WinnerPath) (models.WinnerPath, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.NameCI = text.Fold(p.Name)
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.WinnerPath{}, ErrDuplicatePathName
		}
		return models.WinnerPath{}, err
	}
	return p, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, stages []string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if stages != nil {
		set["stages"] = stages
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicatePathName
	}
	return err
}

func (s *Store) ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.WinnerPath, error) {
	cur, err := s.c.Find(ctx, bson.M{"matrix_id": matrixID}, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.WinnerPath
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
