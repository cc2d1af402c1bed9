// internal/app/store/audit/auditstore.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Event categories.
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Event types.
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailed      = "login_failed"
	EventLoginRateLimited = "login_rate_limited"
	EventMatrixSelected   = "matrix_selected"
	EventPasswordSet      = "password_set"
	EventInviteIssued     = "invite_issued"
)

// Event is one audit trail entry. MemberID is the account the event is
// about; MatrixID is set when the event happened inside a matrix.
type Event struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	Category      string              `bson:"category"`
	EventType     string              `bson:"event_type"`
	Success       bool                `bson:"success"`
	MemberID      *primitive.ObjectID `bson:"member_id,omitempty"`
	MatrixID      *primitive.ObjectID `bson:"matrix_id,omitempty"`
	IP            string              `bson:"ip,omitempty"`
	FailureReason string              `bson:"failure_reason,omitempty"`
	Details       map[string]string   `bson:"details,omitempty"`
	CreatedAt     time.Time           `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

func (s *Store) Log(ctx context.Context, e Event) error {
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// DeleteOlderThan prunes events created before the cutoff and reports
// how many were removed.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
