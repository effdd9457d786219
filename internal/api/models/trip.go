package models

import (
	"encoding/json"

	"github.com/tripforge/tripforge/internal/itinerary"
)

// Trip is a saved itinerary.
type Trip struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	Title       string               `json:"title"`
	Summary     string               `json:"summary,omitempty"`
	Destination string               `json:"destination"`
	Source      string               `json:"source"`
	Duration    int                  `json:"duration"`
	Budget      float64              `json:"budget"`
	Status      string               `json:"status"`
	Itinerary   *itinerary.Itinerary `json:"itinerary,omitempty"`
	CreatedAt   Timestamp            `json:"createdAt"`
	UpdatedAt   Timestamp            `json:"updatedAt"`
}

// TripCreateRequest is the request body for saving an itinerary.
// Itinerary may be canonical or raw producer output.
type TripCreateRequest struct {
	Title       string          `json:"title" validate:"max=200"`
	Summary     string          `json:"summary" validate:"max=2000"`
	Source      string          `json:"source" validate:"max=100"`
	Status      string          `json:"status" validate:"omitempty,oneof=draft upcoming active completed"`
	Destination string          `json:"destination" validate:"max=200"`
	Duration    *int            `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Budget      *float64        `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Itinerary   json.RawMessage `json:"itinerary" validate:"required"`
}

// TripStatusRequest is the request body for changing a trip's status.
type TripStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft upcoming active completed"`
}

// PagedTrips is a page of trips.
type PagedTrips struct {
	Items []Trip   `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// TripStats summarizes one user's trips.
type TripStats struct {
	TotalTrips     int     `json:"totalTrips"`
	TotalSpent     float64 `json:"totalSpent"`
	CompletedTrips int     `json:"completedTrips"`
	UpcomingTrips  int     `json:"upcomingTrips"`
	DraftTrips     int     `json:"draftTrips"`
}
