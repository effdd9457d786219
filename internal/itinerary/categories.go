package itinerary

import "strings"

// ActivityCategory tags an activity for display.
type ActivityCategory string

// Activity categories.
const (
	CategorySightseeing   ActivityCategory = "sightseeing"
	CategoryFood          ActivityCategory = "food"
	CategoryEntertainment ActivityCategory = "entertainment"
	CategoryCulture       ActivityCategory = "culture"
	CategoryNature        ActivityCategory = "nature"
	CategoryShopping      ActivityCategory = "shopping"
	CategoryGeneral       ActivityCategory = "general"
)

// AccommodationType is the kind of lodging.
type AccommodationType string

// Accommodation types.
const (
	AccommodationHotel      AccommodationType = "hotel"
	AccommodationHostel     AccommodationType = "hostel"
	AccommodationAirbnb     AccommodationType = "airbnb"
	AccommodationResort     AccommodationType = "resort"
	AccommodationGuesthouse AccommodationType = "guesthouse"
	AccommodationOther      AccommodationType = "other"
)

// TransportType is the mode of a transport leg.
type TransportType string

// Transport types.
const (
	TransportFlight    TransportType = "flight"
	TransportTrain     TransportType = "train"
	TransportBus       TransportType = "bus"
	TransportCarRental TransportType = "car_rental"
	TransportTaxi      TransportType = "taxi"
	TransportMetro     TransportType = "metro"
	TransportFerry     TransportType = "ferry"
	TransportOther     TransportType = "other"
)

var activityCategories = map[string]ActivityCategory{
	"sightseeing":   CategorySightseeing,
	"sights":        CategorySightseeing,
	"tour":          CategorySightseeing,
	"food":          CategoryFood,
	"dining":        CategoryFood,
	"restaurant":    CategoryFood,
	"meal":          CategoryFood,
	"entertainment": CategoryEntertainment,
	"nightlife":     CategoryEntertainment,
	"culture":       CategoryCulture,
	"cultural":      CategoryCulture,
	"museum":        CategoryCulture,
	"history":       CategoryCulture,
	"nature":        CategoryNature,
	"outdoor":       CategoryNature,
	"adventure":     CategoryNature,
	"shopping":      CategoryShopping,
	"general":       CategoryGeneral,
}

var accommodationTypes = map[string]AccommodationType{
	"hotel":       AccommodationHotel,
	"hostel":      AccommodationHostel,
	"airbnb":      AccommodationAirbnb,
	"apartment":   AccommodationAirbnb,
	"resort":      AccommodationResort,
	"guesthouse":  AccommodationGuesthouse,
	"guest_house": AccommodationGuesthouse,
	"homestay":    AccommodationGuesthouse,
	"other":       AccommodationOther,
}

var transportTypes = map[string]TransportType{
	"flight":     TransportFlight,
	"plane":      TransportFlight,
	"air":        TransportFlight,
	"train":      TransportTrain,
	"rail":       TransportTrain,
	"bus":        TransportBus,
	"coach":      TransportBus,
	"car_rental": TransportCarRental,
	"car":        TransportCarRental,
	"taxi":       TransportTaxi,
	"cab":        TransportTaxi,
	"rideshare":  TransportTaxi,
	"metro":      TransportMetro,
	"subway":     TransportMetro,
	"ferry":      TransportFerry,
	"boat":       TransportFerry,
	"other":      TransportOther,
}

// enumKey folds case and separators so "Car Rental", "car-rental" and
// "car_rental" resolve to the same key.
func enumKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// ParseActivityCategory resolves a producer category, defaulting to CategoryGeneral.
func ParseActivityCategory(s string) ActivityCategory {
	if c, ok := activityCategories[enumKey(s)]; ok {
		return c
	}
	return CategoryGeneral
}

// ParseAccommodationType resolves a producer lodging type, defaulting to AccommodationOther.
func ParseAccommodationType(s string) AccommodationType {
	if t, ok := accommodationTypes[enumKey(s)]; ok {
		return t
	}
	return AccommodationOther
}

// ParseTransportType resolves a producer transport mode, defaulting to TransportOther.
func ParseTransportType(s string) TransportType {
	if t, ok := transportTypes[enumKey(s)]; ok {
		return t
	}
	return TransportOther
}
