// internal/domain/models/ministry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinistryType enumerates the ministerial position types, from highest
// authority to lowest. The helper predicates over these live in
// policy/ministrypolicy.
type MinistryType string

const (
	MinistryPresidentPastor  MinistryType = "PRESIDENT_PASTOR"
	MinistryPastor           MinistryType = "PASTOR"
	MinistryDiscipulador     MinistryType = "DISCIPULADOR"
	MinistryLeader           MinistryType = "LEADER"
	MinistryLeaderInTraining MinistryType = "LEADER_IN_TRAINING"
	MinistryMember           MinistryType = "MEMBER"
	MinistryRegularAttendee  MinistryType = "REGULAR_ATTENDEE"
	MinistryVisitor          MinistryType = "VISITOR"
)

// Ministry is a named, matrix-scoped position. Priority orders
// positions for assignment checks: a LOWER priority number means
// HIGHER authority.
type Ministry struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	Type     MinistryType       `bson:"type" json:"type"`
	Priority int                `bson:"priority" json:"priority"`
	MatrixID primitive.ObjectID `bson:"matrix_id" json:"matrix_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
