// internal/domain/models/winnerpath.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WinnerPath is a matrix-scoped discipleship track (the "caminho do
// vencedor"): an ordered sequence of stages a member walks through
// (consolidation, encounter, leadership training, ...).
type WinnerPath struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	Stages   []string           `bson:"stages,omitempty" json:"stages,omitempty"`
	MatrixID primitive.ObjectID `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
