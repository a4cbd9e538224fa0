package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels for watchdog issues
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// WatchdogIssue is a community-reported problem at a location.
type WatchdogIssue struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Severity    string     `json:"severity"`
	Location    *Location  `json:"location"`
	CreatedBy   *uuid.UUID `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Moderation

	Links []ProjectLink `json:"links,omitempty"`
}
