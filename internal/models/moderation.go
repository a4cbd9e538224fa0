package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the moderation status of a submitted item.
type Status string

// Moderation status constants. Organisations use StatusVerified in place of
// StatusApproved.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Kind identifies one of the moderatable entity types.
type Kind string

const (
	KindProject      Kind = "project"
	KindOrganisation Kind = "organisation"
	KindGrant        Kind = "grant"
	KindWatchdog     Kind = "watchdog"
)

// Kinds lists every moderatable kind in display order.
var Kinds = []Kind{KindProject, KindOrganisation, KindGrant, KindWatchdog}

// ParseKind accepts the singular kind or the plural form used in URLs
// ("projects", "organisations", "grants", "watchdog").
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "project", "projects":
		return KindProject, true
	case "organisation", "organisations", "org", "orgs":
		return KindOrganisation, true
	case "grant", "grants":
		return KindGrant, true
	case "watchdog", "watchdog-issue", "watchdog-issues", "issues":
		return KindWatchdog, true
	}
	return "", false
}

// ApprovedStatus returns the status an approved item of this kind carries.
func (k Kind) ApprovedStatus() Status {
	if k == KindOrganisation {
		return StatusVerified
	}
	return StatusApproved
}

// Plural returns the URL segment for the kind.
func (k Kind) Plural() string {
	switch k {
	case KindProject:
		return "projects"
	case KindOrganisation:
		return "organisations"
	case KindGrant:
		return "grants"
	default:
		return "watchdog"
	}
}

// IsApproved reports whether s is the approved state of any kind.
func (s Status) IsApproved() bool {
	return s == StatusApproved || s == StatusVerified
}

var errModerationInvariant = errors.New("moderation fields violate invariant")

// Moderation holds the moderation status and audit trail shared by every
// moderatable entity.
type Moderation struct {
	Status          Status     `json:"moderation_status"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovedBy      *uuid.UUID `json:"approved_by"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectedBy      *uuid.UUID `json:"rejected_by"`
	RejectionReason *string    `json:"rejection_reason"`
}

// Approve moves the item to the approved state of kind and clears the
// rejection trail.
func (m *Moderation) Approve(kind Kind, actor uuid.UUID, now time.Time) {
	m.Status = kind.ApprovedStatus()
	m.ApprovedAt = &now
	m.ApprovedBy = &actor
	m.RejectedAt = nil
	m.RejectedBy = nil
	m.RejectionReason = nil
}

// Reject moves the item to rejected and clears the approval trail. An empty
// reason is stored as nil.
func (m *Moderation) Reject(actor uuid.UUID, reason string, now time.Time) {
	m.Status = StatusRejected
	m.RejectedAt = &now
	m.RejectedBy = &actor
	m.RejectionReason = nil
	if reason != "" {
		m.RejectionReason = &reason
	}
	m.ApprovedAt = nil
	m.ApprovedBy = nil
}

// Reset returns the item to the review queue.
func (m *Moderation) Reset() {
	m.Status = StatusPending
	m.ApprovedAt = nil
	m.ApprovedBy = nil
	m.RejectedAt = nil
	m.RejectedBy = nil
	m.RejectionReason = nil
}

// Validate checks the audit-trail invariants.
func (m *Moderation) Validate() error {
	if m.ApprovedAt != nil && m.RejectedAt != nil {
		return errModerationInvariant
	}
	if (m.ApprovedAt == nil) != (m.ApprovedBy == nil) || (m.RejectedAt == nil) != (m.RejectedBy == nil) {
		return errModerationInvariant
	}
	if m.RejectionReason != nil && m.Status != StatusRejected {
		return errModerationInvariant
	}
	switch {
	case m.Status == StatusPending:
		if m.ApprovedAt != nil || m.RejectedAt != nil {
			return errModerationInvariant
		}
	case m.Status.IsApproved():
		if m.ApprovedAt == nil {
			return errModerationInvariant
		}
	case m.Status == StatusRejected:
		if m.RejectedAt == nil {
			return errModerationInvariant
		}
	default:
		return errModerationInvariant
	}
	return nil
}

// ModerationEvent is one audit-log entry for a status change.
type ModerationEvent struct {
	ID         int64     `json:"id"`
	Kind       Kind      `json:"kind"`
	ItemID     uuid.UUID `json:"item_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ModerationItem is the lightweight projection shown in review queues.
type ModerationItem struct {
	Kind      Kind       `json:"kind"`
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedBy *uuid.UUID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	Moderation
}

// TransitionFunc mutates a locked item's moderation fields and returns the
// audit events describing the change. Returning an error aborts the
// transition without writing anything.
type TransitionFunc func(item *ModerationItem) ([]ModerationEvent, error)

// ItemPath returns the site path where an item of kind is shown.
func ItemPath(kind Kind, id uuid.UUID) string {
	if kind == KindProject {
		return "/projects/" + id.String()
	}
	return "/" + kind.Plural()
}
