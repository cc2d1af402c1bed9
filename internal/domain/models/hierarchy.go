// internal/domain/models/hierarchy.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The discipleship hierarchy is a strict tree:
//
//	Rede → Discipulado → Celula
//
// Parent pointers only; there are no child lists embedded on parents.
// All three levels are matrix-scoped, and a child's matrix must always
// equal its parent's matrix (enforced by policy/tenantpolicy on every
// mutation).

// Rede is the top tier of the hierarchy, pastored by one member.
type Rede struct {
	ID       primitive.ObjectID  `bson:"_id" json:"id"`
	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"name_ci"`
	PastorID *primitive.ObjectID `bson:"pastor_id,omitempty" json:"pastor_id,omitempty"`
	MatrixID primitive.ObjectID  `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Discipulado is the middle tier, led by one discipulador.
type Discipulado struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"name_ci"`
	RedeID         primitive.ObjectID  `bson:"rede_id" json:"rede_id"`
	DiscipuladorID *primitive.ObjectID `bson:"discipulador_id,omitempty" json:"discipulador_id,omitempty"`
	MatrixID       primitive.ObjectID  `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Celula is the base tier: a small cell group with one leader, an
// optional vice-leader and a set of leaders in training. The trainees
// must be distinct members, and none of them may be the leader.
type Celula struct {
	ID            primitive.ObjectID   `bson:"_id" json:"id"`
	Name          string               `bson:"name" json:"name"`
	NameCI        string               `bson:"name_ci" json:"name_ci"`
	Description   string               `bson:"description,omitempty" json:"description,omitempty"` // sanitized HTML
	DiscipuladoID primitive.ObjectID   `bson:"discipulado_id" json:"discipulado_id"`
	LeaderID      primitive.ObjectID   `bson:"leader_id" json:"leader_id"`
	ViceLeaderID  *primitive.ObjectID  `bson:"vice_leader_id,omitempty" json:"vice_leader_id,omitempty"`
	TraineeIDs    []primitive.ObjectID `bson:"trainee_ids,omitempty" json:"trainee_ids,omitempty"`
	MatrixID      primitive.ObjectID   `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
