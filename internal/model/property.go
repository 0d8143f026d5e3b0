package model

import "time"

// Property is a single listing.
// This is a pure domain model with no database-specific dependencies or tags;
// each repository maps it to its own storage representation.
type Property struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Area        float64   `json:"area"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Type        string    `json:"type,omitempty"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}
