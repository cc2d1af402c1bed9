// internal/app/store/grouproles/grouprolestore.go
package grouprolestore

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
	return &Store{c: db.Collection("group_roles")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupRole, error) {
	var r models.GroupRole
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.GroupRole{}, err
	}
	return r, nil
}

// CreateMany inserts a batch of roles, assigning ids in place. Used by
// group creation to seed the three default roles in one write.
func (s *Store) CreateMany(ctx context.Context, roles []models.GroupRole) ([]models.GroupRole, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(roles))
	for i := range roles {
		roles[i].ID = primitive.NewObjectID()
		roles[i].CreatedAt = now
		docs[i] = roles[i]
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Store) Create(ctx context.Context, r models.GroupRole) (models.GroupRole, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.GroupRole{}, err
	}
	return r, nil
}

func (s *Store) Update(ctx context.Context, r models.GroupRole) error {
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": r.ID, "group_id": r.GroupID}, r)
	return err
}

func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupRole, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupRole
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

// DeleteByGroup removes every role of a group, run in the group
// deletion cascade.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
