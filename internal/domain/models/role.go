// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a matrix-scoped grouping assignable to members. Roles with
// IsAdmin grant blanket authority inside their matrix; only an existing
// admin may assign an admin role to someone else.
//
// Distinct from GroupRole, which belongs to the finance module and is
// scoped to a single Group rather than a matrix.
type Role struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	IsAdmin  bool               `bson:"is_admin" json:"is_admin"`
	MatrixID primitive.ObjectID `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
