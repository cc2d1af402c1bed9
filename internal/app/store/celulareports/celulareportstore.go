// internal/app/store/celulareports/celulareportstore.go
package celulareportstore

import (
	"context"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("celula_reports")}
}

func (s *Store) Create(ctx context.Context, r models.CelulaReport) (models.CelulaReport, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.CelulaReport{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.CelulaReport, error) {
	var r models.CelulaReport
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.CelulaReport{}, err
	}
	return r, nil
}

// ListByCelula returns reports newest meeting first.
func (s *Store) ListByCelula(ctx context.Context, celulaID primitive.ObjectID, limit int64) ([]models.CelulaReport, error) {
	opts := options.Find().SetSort(bson.M{"meeting_date": -1})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"celula_id": celulaID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CelulaReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByCelula removes every report of a célula, the cascade run
// inside célula deletion.
func (s *Store) DeleteByCelula(ctx context.Context, celulaID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"celula_id": celulaID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
