// Package generator produces canonical itineraries from traveller preferences
// by calling an upstream producer and normalizing its answer.
package generator

import (
	"strings"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/itinerary"
)

// Travel styles accepted in Preferences.TravelStyle.
const (
	StyleBudget     = "budget"
	StyleMidRange   = "mid-range"
	StyleLuxury     = "luxury"
	StyleBackpacker = "backpacker"
	StyleFamily     = "family"
)

// Preferences is the trip request forwarded to the producer.
type Preferences struct {
	Destination   string   `json:"destination" validate:"required,max=200"`
	Budget        float64  `json:"budget" validate:"gt=0"`
	Duration      int      `json:"duration" validate:"gte=1,lte=60"`
	StartLocation string   `json:"startLocation,omitempty" validate:"max=200"`
	Interests     []string `json:"interests,omitempty" validate:"max=20,dive,max=50"`
	TravelStyle   string   `json:"travelStyle,omitempty" validate:"omitempty,oneof=budget mid-range luxury backpacker family"`
}

// Clean trims free-text fields and drops blank interests.
func (p *Preferences) Clean() {
	p.Destination = strings.TrimSpace(p.Destination)
	p.StartLocation = strings.TrimSpace(p.StartLocation)
	p.TravelStyle = strings.ToLower(strings.TrimSpace(p.TravelStyle))
	interests := make([]string, 0, len(p.Interests))
	for _, i := range p.Interests {
		if s := strings.TrimSpace(i); s != "" {
			interests = append(interests, s)
		}
	}
	p.Interests = interests
}

// Fallback exposes the form values to the normalizer.
func (p *Preferences) Fallback() itinerary.Fallback {
	duration := p.Duration
	budget := p.Budget
	return itinerary.Fallback{
		Destination:   p.Destination,
		Duration:      &duration,
		Budget:        &budget,
		StartLocation: p.StartLocation,
		TravelStyle:   p.TravelStyle,
		Interests:     p.Interests,
	}
}

// ValidationError represents input validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
