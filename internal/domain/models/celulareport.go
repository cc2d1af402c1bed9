// internal/domain/models/celulareport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CelulaReport is a weekly attendance report filed by a célula's
// leadership. Reports are removed in cascade when their célula is
// deleted.
type CelulaReport struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CelulaID     primitive.ObjectID   `bson:"celula_id" json:"celula_id"`
	MatrixID     primitive.ObjectID   `bson:"matrix_id" json:"matrix_id"`
	MeetingDate  time.Time            `bson:"meeting_date" json:"meeting_date"`
	PresentIDs   []primitive.ObjectID `bson:"present_ids,omitempty" json:"present_ids,omitempty"`
	VisitorCount int                  `bson:"visitor_count" json:"visitor_count"`
	Notes        string               `bson:"notes,omitempty" json:"notes,omitempty"` // sanitized HTML

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
