// internal/domain/models/matrixmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatrixMembership is the authoritative join between members and
// matrices. Exactly one document per (member_id, matrix_id). A member
// may belong to multiple matrices; at login they pick which one the
// session is bound to.
type MatrixMembership struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID primitive.ObjectID `bson:"member_id" json:"member_id"`
	MatrixID primitive.ObjectID `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
