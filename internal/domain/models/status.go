package models

// Lifecycle status values shared by matrices and members.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
