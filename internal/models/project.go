package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a humanitarian or environmental initiative submitted for review.
type Project struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Location       *Location  `json:"location"`
	OrganisationID *uuid.UUID `json:"organisation_id"`
	CreatedBy      *uuid.UUID `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Moderation

	// Child collections, populated by GetProjectByID
	Links          []ProjectLink `json:"links,omitempty"`
	PartnerIDs     []uuid.UUID   `json:"partner_ids,omitempty"`
	SDGs           []int         `json:"sdgs,omitempty"`
	IFRCChallenges []string      `json:"ifrc_challenges,omitempty"`
}

// ProjectLink is an external link attached to a project.
type ProjectLink struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// ProjectChildren is the full set of child rows replaced on every edit.
type ProjectChildren struct {
	Links          []ProjectLink
	PartnerIDs     []uuid.UUID
	SDGs           []int
	IFRCChallenges []string
}
