// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member represents a person in a church. Members may or may not have
// system access; those without it have no password hash and cannot log in.
//
// NOTE:
//   - Matrix membership is not embedded on Member. Use the
//     matrix_memberships collection to discover a member's matrices;
//     a member may belong to more than one.
//   - RoleIDs holds the matrix-scoped roles assigned to the member.
type Member struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`

	// Notes is sanitized HTML entered by leaders (pastoral notes,
	// prayer requests). Never rendered without going through
	// htmlsanitize first.
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	HasSystemAccess bool   `bson:"has_system_access" json:"has_system_access"`
	PasswordHash    string `bson:"password_hash,omitempty" json:"-"`

	// MinistryPositionID references the member's Ministry position.
	// Nil means plain member (lowest authority).
	MinistryPositionID *primitive.ObjectID `bson:"ministry_position_id,omitempty" json:"ministry_position_id,omitempty"`

	// CelulaID is the célula the member attends as a regular
	// participant (independent of any leadership relation).
	CelulaID *primitive.ObjectID `bson:"celula_id,omitempty" json:"celula_id,omitempty"`

	// SpouseID is a symmetric pairing: if A.SpouseID == B then
	// B.SpouseID == A, and neither may be paired with anyone else.
	SpouseID *primitive.ObjectID `bson:"spouse_id,omitempty" json:"spouse_id,omitempty"`

	RoleIDs []primitive.ObjectID `bson:"role_ids,omitempty" json:"role_ids,omitempty"`

	Status string `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
