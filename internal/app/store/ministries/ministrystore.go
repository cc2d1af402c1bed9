// internal/app/store/ministries/ministrystore.go
package ministrystore

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

var ErrDuplicateMinistryName = errors.New("a ministry with this name already exists in the matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ministries")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Ministry, error) {
	var m models.Ministry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Ministry{}, err
	}
	return m, nil
}

func (s *Store) Create(ctx context.Context, m models.Ministry) (models.Ministry, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.NameCI = text.Fold(m.Name)
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Ministry{}, ErrDuplicateMinistryName
		}
		return models.Ministry{}, err
	}
	return m, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, typ models.MinistryType, priority *int) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if typ != "" {
		set["type"] = typ
	}
	if priority != nil {
		set["priority"] = *priority
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateMinistryName
	}
	return err
}

// GetByType returns the matrix's ministry of the given type. When the
// matrix defines several, the most senior (lowest priority number)
// wins.
func (s *Store) GetByType(ctx context.Context, matrixID primitive.ObjectID, typ models.MinistryType) (models.Ministry, error) {
	var m models.Ministry
	err := s.c.FindOne(ctx, bson.M{"matrix_id": matrixID, "type": typ},
		options.FindOne().SetSort(bson.M{"priority": 1})).Decode(&m)
	if err != nil {
		return models.Ministry{}, err
	}
	return m, nil
}

// ListByMatrix returns the matrix's ministries ordered by authority.
func (s *Store) ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.Ministry, error) {
	cur, err := s.c.Find(ctx, bson.M{"matrix_id": matrixID},
		options.Find().SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Ministry
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
