package models

import (
	"time"

	"github.com/google/uuid"
)

// TargetType is what a follow edge points at.
type TargetType string

const (
	TargetPerson  TargetType = "person"
	TargetOrg     TargetType = "org"
	TargetProject TargetType = "project"
)

// Valid returns true for the three followable target types.
func (t TargetType) Valid() bool {
	return t == TargetPerson || t == TargetOrg || t == TargetProject
}

// Follow is a directed, deduplicated edge from a user to a target.
type Follow struct {
	FollowerID uuid.UUID  `json:"follower_id"`
	TargetType TargetType `json:"target_type"`
	TargetID   uuid.UUID  `json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
