// Package trip stores itineraries that users have saved.
package trip

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tripforge/tripforge/internal/itinerary"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("trip not found or unauthorized")
)

// DefaultSource tags trips produced by the itinerary generator.
const DefaultSource = "ai-generator-v1"

// Status is the planning state of a trip.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	// StatusFlagged is set by moderators only.
	StatusFlagged Status = "flagged"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusDraft, StatusUpcoming, StatusActive, StatusCompleted, StatusFlagged}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Trip is a saved itinerary. Itinerary and Payload never change after creation.
type Trip struct {
	ID          string
	UserID      string
	Title       string
	Summary     string
	Destination string
	Source      string
	Duration    int
	Budget      float64
	Itinerary   *itinerary.Itinerary
	// Payload is the document exactly as it was submitted.
	Payload   json.RawMessage
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary aggregates trips by status.
type Summary struct {
	Total       int
	ByStatus    map[Status]int
	TotalBudget float64
}

// UserTotal is the trip count and budget sum for one user.
type UserTotal struct {
	UserID string
	Trips  int
	Spent  float64
}
