// internal/domain/models/matrix.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Matrix is a tenant: an isolated church organization sharing this
// deployment. Every hierarchical entity (rede, discipulado, célula,
// ministry, role) belongs to exactly one matrix.
type Matrix struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`

	// Domains lists the public-facing hostnames that resolve to this
	// matrix (e.g., "caruaru.videira.app"). Used by the domain
	// cross-check middleware to reject tokens replayed against another
	// matrix's domain.
	Domains []string `bson:"domains,omitempty" json:"domains,omitempty"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
