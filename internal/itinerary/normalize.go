package itinerary

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

// Producer-side names for each canonical field, in priority order.
var (
	destinationAliases    = []string{"destination"}
	durationAliases       = []string{"duration", "days", "numberOfDays"}
	totalBudgetAliases    = []string{"totalBudget", "budget", "total_budget"}
	startLocationAliases  = []string{"startLocation", "origin"}
	travelStyleAliases    = []string{"travelStyle"}
	interestsAliases      = []string{"interests"}
	dailyItineraryAliases = []string{"dailyItinerary", "itinerary", "daily_itinerary", "days"}
	accommodationAliases  = []string{"accommodations", "accommodationOptions", "accommodation_options"}
	transportationAliases = []string{"transportation", "transport", "transportOptions"}
	breakdownAliases      = []string{"budgetBreakdown", "budget_breakdown", "costBreakdown"}
	tipsAliases           = []string{"tips", "travelTips", "travel_tips"}

	breakdownAccommodationAliases  = []string{"accommodation", "accommodations", "lodging"}
	breakdownTransportationAliases = []string{"transportation", "travel", "transport"}
	breakdownActivitiesAliases     = []string{"activities", "sightseeing"}
	breakdownFoodAliases           = []string{"food", "meals", "dining"}
	breakdownMiscAliases           = []string{"miscellaneous", "misc", "other"}
)

// Envelope handling.
var (
	envelopeKeys     = []string{"output", "data", "payload", "itinerary"}
	canonicalMarkers = []string{"destination", "dailyItinerary"}
)

const maxEnvelopeDepth = 4

// Normalize converts a raw producer response into a canonical Itinerary.
//
// Only a body that cannot be reduced to a JSON object fails, with
// ErrMalformedUpstreamResponse. Missing or mistyped fields fall back to the
// form values in fb and then to zero values. Normalize is pure and safe for
// concurrent use.
func Normalize(raw []byte, fb Fallback) (*Itinerary, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return nil, malformed("empty body")
	}
	if !gjson.ValidBytes(body) {
		return nil, malformed("invalid JSON")
	}

	obj, err := unwrap(gjson.ParseBytes(body))
	if err != nil {
		return nil, err
	}
	return fromObject(obj, fb), nil
}

func unwrap(root gjson.Result) (gjson.Result, error) {
	if root.Type == gjson.String {
		doc, ok := embeddedJSON(root.Str)
		if !ok {
			return gjson.Result{}, malformed("payload is not an object")
		}
		root = doc
	}
	if root.IsArray() {
		elems := root.Array()
		if len(elems) == 0 {
			return gjson.Result{}, malformed("empty array")
		}
		root = elems[0]
	}

	for depth := 0; depth < maxEnvelopeDepth && root.IsObject() && !hasMarker(root); depth++ {
		inner, ok := envelope(root)
		if !ok {
			break
		}
		root = inner
	}

	if !root.IsObject() {
		return gjson.Result{}, malformed("payload is not an object")
	}
	return root, nil
}

func hasMarker(obj gjson.Result) bool {
	for _, key := range canonicalMarkers {
		if obj.Get(key).Exists() {
			return true
		}
	}
	return false
}

// envelope returns the inner payload of a wrapper object. Producers that
// stream LLM text put the itinerary in a string field, sometimes fenced as a
// markdown code block. An array is only descended into when its first element
// is itself an itinerary, so {"itinerary": [days...]} stays a daily plan.
func envelope(obj gjson.Result) (gjson.Result, bool) {
	for _, key := range envelopeKeys {
		v := obj.Get(key)
		switch {
		case v.IsObject():
			return v, true
		case v.IsArray():
			if first := v.Get("0"); first.IsObject() && hasMarker(first) {
				return first, true
			}
		case v.Type == gjson.String:
			if doc, ok := embeddedJSON(v.Str); ok {
				return doc, true
			}
		}
	}
	return gjson.Result{}, false
}

func embeddedJSON(s string) (gjson.Result, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	if !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	doc := gjson.Parse(s)
	if doc.IsArray() {
		elems := doc.Array()
		if len(elems) == 0 {
			return gjson.Result{}, false
		}
		doc = elems[0]
	}
	return doc, doc.IsObject()
}

func fromObject(obj gjson.Result, fb Fallback) *Itinerary {
	it := &Itinerary{
		Destination:    pickText(obj, destinationAliases...),
		StartLocation:  pickText(obj, startLocationAliases...),
		TravelStyle:    pickText(obj, travelStyleAliases...),
		Interests:      []string{},
		DailyItinerary: []DayPlan{},
		Accommodations: []AccommodationOption{},
		Transportation: []TransportLeg{},
		Tips:           []string{},
	}

	if it.Destination == "" {
		it.Destination = strings.TrimSpace(fb.Destination)
	}
	if it.Destination == "" {
		it.Destination = UnknownDestination
	}
	if it.StartLocation == "" {
		it.StartLocation = strings.TrimSpace(fb.StartLocation)
	}
	if it.TravelStyle == "" {
		it.TravelStyle = strings.TrimSpace(fb.TravelStyle)
	}

	if v, ok := pick(obj, durationAliases, hasNumber); ok {
		it.Duration = integer(v)
	} else if fb.Duration != nil && *fb.Duration > 0 {
		it.Duration = *fb.Duration
	}

	if v, ok := pick(obj, totalBudgetAliases, hasNumber); ok {
		it.TotalBudget = amount(v)
	} else if fb.Budget != nil && *fb.Budget > 0 {
		it.TotalBudget = *fb.Budget
	}

	if v, ok := pick(obj, interestsAliases, func(v gjson.Result) bool { return v.IsArray() || v.Type == gjson.String }); ok {
		it.Interests = dedupe(textList(v, true))
	} else if len(fb.Interests) > 0 {
		it.Interests = dedupe(append([]string(nil), fb.Interests...))
	}

	if v, ok := pick(obj, dailyItineraryAliases, isArray); ok {
		for i, el := range v.Array() {
			it.DailyItinerary = append(it.DailyItinerary, dayPlan(el, i))
		}
	}
	if v, ok := pick(obj, accommodationAliases, isArray); ok {
		for _, el := range v.Array() {
			it.Accommodations = append(it.Accommodations, accommodation(el))
		}
	}
	if v, ok := pick(obj, transportationAliases, isArray); ok {
		for _, el := range v.Array() {
			it.Transportation = append(it.Transportation, transportLeg(el))
		}
	}
	if v, ok := pick(obj, breakdownAliases, isObject); ok {
		it.BudgetBreakdown = BudgetBreakdown{
			Accommodation:  pickAmount(v, breakdownAccommodationAliases...),
			Transportation: pickAmount(v, breakdownTransportationAliases...),
			Activities:     pickAmount(v, breakdownActivitiesAliases...),
			Food:           pickAmount(v, breakdownFoodAliases...),
			Miscellaneous:  pickAmount(v, breakdownMiscAliases...),
		}
	}
	if v, ok := pick(obj, tipsAliases, isArray); ok {
		it.Tips = textList(v, false, "tip", "text", "description", "title")
	}

	return it
}

// dayPlan keeps the producer's day number; index+1 is used only when it is missing.
func dayPlan(el gjson.Result, index int) DayPlan {
	d := DayPlan{
		Day:         index + 1,
		Date:        pickText(el, "date"),
		DailyBudget: pickAmount(el, "dailyBudget", "budget", "estimatedCost"),
		Activities:  []Activity{},
	}
	if v, ok := pick(el, []string{"day", "dayNumber"}, hasNumber); ok {
		d.Day = integer(v)
	}
	if v, ok := pick(el, []string{"activities", "schedule", "items"}, isArray); ok {
		for _, a := range v.Array() {
			d.Activities = append(d.Activities, activity(a))
		}
	}
	return d
}

func activity(el gjson.Result) Activity {
	a := Activity{
		Time:        pickText(el, "time", "startTime"),
		Activity:    pickText(el, "activity", "name", "title"),
		Location:    pickText(el, "location", "place", "address"),
		Cost:        pickAmount(el, "cost", "price", "estimatedCost"),
		Description: pickText(el, "description", "details"),
		Category:    ParseActivityCategory(pickText(el, "category", "type")),
	}
	if a.Activity == "" {
		if s, ok := text(el); ok {
			a.Activity = s
		}
	}
	if a.Activity == "" {
		a.Activity = a.Description
	}
	if a.Activity == "" {
		a.Activity = "Activity"
	}
	return a
}

func accommodation(el gjson.Result) AccommodationOption {
	a := AccommodationOption{
		Name:          pickText(el, "name", "title"),
		Type:          ParseAccommodationType(pickText(el, "type", "category")),
		PricePerNight: pickAmount(el, "pricePerNight", "price", "nightlyRate", "cost"),
		Rating:        pickAmount(el, "rating", "stars"),
		Location:      pickText(el, "location", "area", "address"),
		Amenities:     []string{},
		Description:   pickText(el, "description"),
	}
	if a.Name == "" {
		a.Name = "Accommodation"
	}
	if v, ok := pick(el, []string{"amenities", "features"}, func(v gjson.Result) bool { return v.IsArray() || v.Type == gjson.String }); ok {
		a.Amenities = dedupe(textList(v, true, "name"))
	}
	return a
}

func transportLeg(el gjson.Result) TransportLeg {
	return TransportLeg{
		Type:        ParseTransportType(pickText(el, "type", "mode")),
		From:        pickText(el, "from", "origin"),
		To:          pickText(el, "to", "destination"),
		Cost:        pickAmount(el, "cost", "price"),
		Duration:    pickText(el, "duration", "travelTime"),
		Description: pickText(el, "description"),
	}
}
