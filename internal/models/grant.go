package models

import (
	"time"

	"github.com/google/uuid"
)

// Grant is a funding opportunity listed on the platform.
type Grant struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Funder      string     `json:"funder"`
	URL         string     `json:"url"`
	AmountMin   *float64   `json:"amount_min"`
	AmountMax   *float64   `json:"amount_max"`
	Currency    string     `json:"currency"`
	Deadline    *time.Time `json:"deadline"`
	Location    *Location  `json:"location"`
	CreatedBy   *uuid.UUID `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Moderation

	SDGs []int `json:"sdgs,omitempty"`
}
