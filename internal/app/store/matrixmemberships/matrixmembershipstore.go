// internal/app/store/matrixmemberships/matrixmembershipstore.go
package matrixmembershipstore

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

var ErrDuplicateMembership = errors.New("member already belongs to this matrix")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("matrix_memberships")}
}

// Add creates the (member, matrix) join. A unique index keeps one
// document per pair.
func (s *Store) Add(ctx context.Context, memberID, matrixID primitive.ObjectID) error {
	_, err := s.c.InsertOne(ctx, models.MatrixMembership{
		MemberID:  memberID,
		MatrixID:  matrixID,
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

func (s *Store) Remove(ctx context.Context, memberID, matrixID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"member_id": memberID, "matrix_id": matrixID})
	return err
}

func (s *Store) Exists(ctx context.Context, memberID, matrixID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"member_id": memberID, "matrix_id": matrixID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MatrixIDsForMember lists every matrix the member belongs to, used at
// login to decide whether matrix selection is needed.
func (s *Store) MatrixIDsForMember(ctx context.Context, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row models.MatrixMembership
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.MatrixID)
	}
	return out, cur.Err()
}

// MemberIDsInMatrix lists every member id enrolled in a matrix. Used
// to scope member listings; page-sized windows are cut afterwards by
// the member store, which owns the name ordering.
func (s *Store) MemberIDsInMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"matrix_id": matrixID}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row models.MatrixMembership
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.MemberID)
	}
	return out, cur.Err()
}

// DeleteByMember removes every membership a member holds, used when
// the member is deleted.
func (s *Store) DeleteByMember(ctx context.Context, memberID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"member_id": memberID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
