// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/paging"
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

var ErrDuplicateEmail = errors.New("a member with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// GetByEmail is the login lookup. Email is stored normalized.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.FullNameCI = text.Fold(m.FullName)
	if m.Status == "" {
		m.Status = models.StatusActive
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

// UpdateProfile rewrites the mutable profile fields. Notes arrives
// already sanitized; empty strings clear their fields.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName, email, phone, notes string) error {
	set := bson.M{
		"email":      email,
		"phone":      phone,
		"notes":      notes,
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(fullName) != "" {
		set["full_name"] = fullName
		set["full_name_ci"] = text.Fold(fullName)
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateEmail
	}
	return err
}

// SetPassword stores the bcrypt hash and grants system access.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash":     passwordHash,
		"has_system_access": true,
		"updated_at":        time.Now().UTC(),
	}})
	return err
}

// SetMinistryPosition assigns or clears (nil) the ministry position.
func (s *Store) SetMinistryPosition(ctx context.Context, id primitive.ObjectID, ministryID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if ministryID == nil {
		update["$unset"] = bson.M{"ministry_position_id": ""}
	} else {
		update["$set"].(bson.M)["ministry_position_id"] = *ministryID
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// SetCelula assigns or clears (nil) the célula a member attends.
func (s *Store) SetCelula(ctx context.Context, id primitive.ObjectID, celulaID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if celulaID == nil {
		update["$unset"] = bson.M{"celula_id": ""}
	} else {
		update["$set"].(bson.M)["celula_id"] = *celulaID
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// MoveToCelula reassigns a set of members to a célula in one write,
// used by the multiply operation. Only documents currently attached to
// fromCelula are touched, so the modified count tells the caller
// whether every requested member really belonged to the source célula.
func (s *Store) MoveToCelula(ctx context.Context, memberIDs []primitive.ObjectID, fromCelula, toCelula primitive.ObjectID) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": memberIDs}, "celula_id": fromCelula},
		bson.M{"$set": bson.M{"celula_id": toCelula, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetRoles replaces the member's role assignments.
func (s *Store) SetRoles(ctx context.Context, id primitive.ObjectID, roleIDs []primitive.ObjectID) error {
	if roleIDs == nil {
		roleIDs = []primitive.ObjectID{}
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role_ids":   roleIDs,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetSpouse writes both sides of the symmetric pairing.
func (s *Store) SetSpouse(ctx context.Context, a, b primitive.ObjectID) error {
	now := time.Now().UTC()
	if _, err := s.c.UpdateByID(ctx, a, bson.M{"$set": bson.M{"spouse_id": b, "updated_at": now}}); err != nil {
		return err
	}
	_, err := s.c.UpdateByID(ctx, b, bson.M{"$set": bson.M{"spouse_id": a, "updated_at": now}})
	return err
}

// ClearSpouse removes the pairing from both sides.
func (s *Store) ClearSpouse(ctx context.Context, a, b primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": []primitive.ObjectID{a, b}}},
		bson.M{"$unset": bson.M{"spouse_id": ""}, "$set": bson.M{"updated_at": now}})
	return err
}

// CountInCelula returns how many members attend the célula. Used as
// the delete precondition.
func (s *Store) CountInCelula(ctx context.Context, celulaID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"celula_id": celulaID})
}

// ListInCelula returns the members attending a célula.
func (s *Store) ListInCelula(ctx context.Context, celulaID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"celula_id": celulaID}, options.Find().SetSort(bson.M{"full_name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIDs loads a page-sized set of members by id.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.M{"full_name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage returns one keyset page of the given members, ordered by
// folded name. Fetches PageSize+1 rows; the caller trims with
// paging.TrimPage and reverses after a backwards fetch.
func (s *Store) ListPage(ctx context.Context, ids []primitive.ObjectID, before, after string) ([]models.Member, paging.KeysetConfig, error) {
	cfg := paging.ConfigureKeyset(before, after)
	if len(ids) == 0 {
		return nil, cfg, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	if window := cfg.KeysetWindow("full_name_ci"); window != nil {
		filter = bson.M{"$and": bson.A{filter, window}}
	}
	find := options.Find()
	cfg.ApplyToFind(find, "full_name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, cfg, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, cfg, err
	}
	return out, cfg, nil
}

func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
