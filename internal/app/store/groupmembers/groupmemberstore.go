// internal/app/store/groupmembers/groupmemberstore.go
package groupmemberstore

import (
	"context"
	"errors"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateMembership = errors.New("member already belongs to this group")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_members")}
}

// Add joins a member to a group with a role. A unique index keeps one
// document per (group_id, member_id).
func (s *Store) Add(ctx context.Context, groupID, memberID, roleID primitive.ObjectID) error {
	_, err := s.c.InsertOne(ctx, models.GroupMember{
		GroupID:   groupID,
		MemberID:  memberID,
		RoleID:    roleID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "member_id": memberID})
	return err
}

// Get returns the membership for (group, member), or ErrNoDocuments.
func (s *Store) Get(ctx context.Context, groupID, memberID primitive.ObjectID) (models.GroupMember, error) {
	var m models.GroupMember
	if err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "member_id": memberID}).Decode(&m); err != nil {
		return models.GroupMember{}, err
	}
	return m, nil
}

// SetRole reassigns the member's role inside the group.
func (s *Store) SetRole(ctx context.Context, groupID, memberID, roleID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "member_id": memberID},
		bson.M{"$set": bson.M{"role_id": roleID}})
	return err
}

func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupMember, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupIDsForMember lists the groups a member belongs to.
func (s *Store) GroupIDsForMember(ctx context.Context, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID},
		options.Find().SetProjection(bson.M{"group_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			GroupID primitive.ObjectID `bson:"group_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.GroupID)
	}
	return out, cur.Err()
}

// CountWithRole reports how many members hold a role, the guard
// against deleting a role still in use.
func (s *Store) CountWithRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role_id": roleID})
}

// DeleteByGroup removes every membership of a group, run in the group
// deletion cascade.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
