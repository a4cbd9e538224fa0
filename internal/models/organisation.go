package models

import (
	"time"

	"github.com/google/uuid"
)

// Organisation represents a group running or funding projects.
type Organisation struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Website     string     `json:"website"`
	Country     string     `json:"country"`
	Location    *Location  `json:"location"`
	CreatedBy   *uuid.UUID `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Moderation
}

// Membership roles
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// Membership links a user to an organisation with a role and capability flags.
type Membership struct {
	OrganisationID    uuid.UUID `json:"organisation_id"`
	UserID            uuid.UUID `json:"user_id"`
	Role              string    `json:"role"`
	CanCreateProjects bool      `json:"can_create_projects"`
	CanCreateFunding  bool      `json:"can_create_funding"`
	CanManageMembers  bool      `json:"can_manage_members"`
	CreatedAt         time.Time `json:"created_at"`
}

// CanManage returns true if the member may edit the organisation and its members.
func (m *Membership) CanManage() bool {
	return m.Role == MemberRoleOwner || m.Role == MemberRoleAdmin || m.CanManageMembers
}

// OwnerMembership returns the membership granted to an organisation's creator.
func OwnerMembership(orgID, userID uuid.UUID) Membership {
	return Membership{
		OrganisationID:    orgID,
		UserID:            userID,
		Role:              MemberRoleOwner,
		CanCreateProjects: true,
		CanCreateFunding:  true,
		CanManageMembers:  true,
	}
}
