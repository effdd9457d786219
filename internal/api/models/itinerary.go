package models

import "github.com/tripforge/tripforge/internal/itinerary"

// GenerateResponse wraps a synchronously generated itinerary.
type GenerateResponse struct {
	Itinerary *itinerary.Itinerary `json:"itinerary"`
}

// JobAccepted is returned when an asynchronous generation is queued.
type JobAccepted struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// JobStatus is the polling view of a generation job.
type JobStatus struct {
	JobID     string               `json:"jobId"`
	Status    string               `json:"status"`
	Itinerary *itinerary.Itinerary `json:"itinerary,omitempty"`
	Error     string               `json:"error,omitempty"`
	CreatedAt Timestamp            `json:"createdAt"`
	UpdatedAt Timestamp            `json:"updatedAt"`
}
