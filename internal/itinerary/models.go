// Package itinerary defines the canonical travel itinerary and converts
// loosely shaped producer output into it.
package itinerary

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// UnknownDestination is used when neither the payload nor the form names a destination.
const UnknownDestination = "Unknown destination"

// Itinerary is the canonical itinerary used for storage and display.
// A normalized Itinerary never has nil slices or negative amounts.
type Itinerary struct {
	Destination     string                `json:"destination" validate:"required"`
	Duration        int                   `json:"duration" validate:"gte=0"`
	TotalBudget     float64               `json:"totalBudget" validate:"gte=0"`
	StartLocation   string                `json:"startLocation"`
	TravelStyle     string                `json:"travelStyle"`
	Interests       []string              `json:"interests" validate:"required"`
	DailyItinerary  []DayPlan             `json:"dailyItinerary" validate:"required,dive"`
	Accommodations  []AccommodationOption `json:"accommodations" validate:"required,dive"`
	Transportation  []TransportLeg        `json:"transportation" validate:"required,dive"`
	BudgetBreakdown BudgetBreakdown       `json:"budgetBreakdown"`
	Tips            []string              `json:"tips" validate:"required"`
}

// DayPlan is one day of the itinerary.
type DayPlan struct {
	Day         int        `json:"day" validate:"gte=0"`
	Date        string     `json:"date,omitempty"`
	DailyBudget float64    `json:"dailyBudget" validate:"gte=0"`
	Activities  []Activity `json:"activities" validate:"required,dive"`
}

// Activity is a single scheduled item within a day.
type Activity struct {
	Time        string           `json:"time"`
	Activity    string           `json:"activity" validate:"required"`
	Location    string           `json:"location,omitempty"`
	Cost        float64          `json:"cost" validate:"gte=0"`
	Description string           `json:"description,omitempty"`
	Category    ActivityCategory `json:"category" validate:"required"`
}

// AccommodationOption is a suggested place to stay.
type AccommodationOption struct {
	Name          string            `json:"name" validate:"required"`
	Type          AccommodationType `json:"type" validate:"required"`
	PricePerNight float64           `json:"pricePerNight" validate:"gte=0"`
	Rating        float64           `json:"rating" validate:"gte=0"`
	Location      string            `json:"location"`
	Amenities     []string          `json:"amenities" validate:"required"`
	Description   string            `json:"description"`
}

// TransportLeg is a suggested way of getting from one place to another.
type TransportLeg struct {
	Type        TransportType `json:"type" validate:"required"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Cost        float64       `json:"cost" validate:"gte=0"`
	Duration    string        `json:"duration"`
	Description string        `json:"description"`
}

// BudgetBreakdown splits the total budget into fixed spending categories.
type BudgetBreakdown struct {
	Accommodation  float64 `json:"accommodation" validate:"gte=0"`
	Transportation float64 `json:"transportation" validate:"gte=0"`
	Activities     float64 `json:"activities" validate:"gte=0"`
	Food           float64 `json:"food" validate:"gte=0"`
	Miscellaneous  float64 `json:"miscellaneous" validate:"gte=0"`
}

// Total returns the sum of all categories.
func (b BudgetBreakdown) Total() float64 {
	return b.Accommodation + b.Transportation + b.Activities + b.Food + b.Miscellaneous
}

// Fallback carries the values the traveller entered in the request form.
// They are used when the producer omits the corresponding field.
type Fallback struct {
	Destination   string
	Duration      *int
	Budget        *float64
	StartLocation string
	TravelStyle   string
	Interests     []string
}

var validate = validator.New()

// Validate checks that the itinerary satisfies the canonical invariants.
func (it *Itinerary) Validate() error {
	if err := validate.Struct(it); err != nil {
		return fmt.Errorf("invalid itinerary: %w", err)
	}
	for _, v := range it.amounts() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid itinerary: non-finite amount")
		}
	}
	return nil
}

// ActivityCount returns the number of activities across all days.
func (it *Itinerary) ActivityCount() int {
	n := 0
	for _, d := range it.DailyItinerary {
		n += len(d.Activities)
	}
	return n
}

func (it *Itinerary) amounts() []float64 {
	out := []float64{it.TotalBudget}
	b := it.BudgetBreakdown
	out = append(out, b.Accommodation, b.Transportation, b.Activities, b.Food, b.Miscellaneous)
	for _, d := range it.DailyItinerary {
		out = append(out, d.DailyBudget)
		for _, a := range d.Activities {
			out = append(out, a.Cost)
		}
	}
	for _, a := range it.Accommodations {
		out = append(out, a.PricePerNight, a.Rating)
	}
	for _, t := range it.Transportation {
		out = append(out, t.Cost)
	}
	return out
}
