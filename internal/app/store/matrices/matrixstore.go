// internal/app/store/matrices/matrixstore.go
package matrixstore

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

var ErrDuplicateMatrixName = errors.New("a matrix with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("matrices")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Matrix, error) {
	var m models.Matrix
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Matrix{}, err
	}
	return m, nil
}

// GetByDomain looks up the matrix claiming the given hostname. Domains
// are stored lowercased.
func (s *Store) GetByDomain(ctx context.Context, domain string) (models.Matrix, error) {
	var m models.Matrix
	err := s.c.FindOne(ctx, bson.M{"domains": strings.ToLower(domain)}).Decode(&m)
	if err != nil {
		return models.Matrix{}, err
	}
	return m, nil
}

func (s *Store) Create(ctx context.Context, m models.Matrix) (models.Matrix, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.NameCI = text.Fold(m.Name)
	if m.Status == "" {
		m.Status = models.StatusActive
	}
	for i, d := range m.Domains {
		m.Domains[i] = strings.ToLower(strings.TrimSpace(d))
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Matrix{}, ErrDuplicateMatrixName
		}
		return models.Matrix{}, err
	}
	return m, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, domains []string, status string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if domains != nil {
		lowered := make([]string, len(domains))
		for i, d := range domains {
			lowered[i] = strings.ToLower(strings.TrimSpace(d))
		}
		set["domains"] = lowered
	}
	if status != "" {
		set["status"] = status
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateMatrixName
	}
	return err
}

func (s *Store) List(ctx context.Context) ([]models.Matrix, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Matrix
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIDs loads the matrices for a set of ids, used to present the
// matrix choices at login.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Matrix, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.M{"name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Matrix
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
