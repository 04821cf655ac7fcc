package services

import (
	"fmt"
	"math"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/domain/geo"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

const (
	earthRadiusKm  = 6371.0
	kmToMiles      = 0.621371
	walkingSpeedKm = 5.0  // km/h
	transitSpeedKm = 15.0 // km/h
	drivingSpeedKm = 30.0 // km/h
)

// TravelService estimates distance and travel time from a visitor's location
// to one of the practice's locations.
type TravelService struct {
	logger       *logging.ChanneledLogger
	destinations map[string]geo.LatLng
	primary      geo.LatLng
}

// NewTravelService creates a travel estimator seeded with the practice's
// configured locations.
func NewTravelService(logger *logging.ChanneledLogger) *TravelService {
	primary := geo.LatLng{Lat: config.PracticeLat, Lng: config.PracticeLng}
	return &TravelService{
		logger:  logger,
		primary: primary,
		destinations: map[string]geo.LatLng{
			"gedling":    primary,
			"nottingham": {Lat: 52.9548, Lng: -1.1581},
			"arnold":     {Lat: 53.0050, Lng: -1.1271},
		},
	}
}

// Estimate computes a travel estimate from origin to the named destination.
// An empty or unknown key selects the primary practice. Returns nil on
// invalid origin coordinates; never errors.
func (s *TravelService) Estimate(origin geo.LatLng, destinationKey string) *cohort.TravelEstimate {
	if !origin.Valid() {
		return nil
	}

	destination := s.primary
	if destinationKey != "" {
		if d, ok := s.destinations[destinationKey]; ok {
			destination = d
		}
	}
	if !destination.Valid() {
		return nil
	}

	distanceKm := haversineKm(origin, destination)
	mode, speed := modeForDistance(distanceKm)

	return &cohort.TravelEstimate{
		DistanceKm:    distanceKm,
		DistanceLabel: formatMiles(distanceKm * kmToMiles),
		EstimatedTime: formatDuration(distanceKm, speed),
		Mode:          mode,
	}
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(a, b geo.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// modeForDistance selects the travel mode: under 2km walking, under 10km
// transit, otherwise driving.
func modeForDistance(distanceKm float64) (string, float64) {
	switch {
	case distanceKm < 2:
		return "walking", walkingSpeedKm
	case distanceKm < 10:
		return "transit", transitSpeedKm
	default:
		return "driving", drivingSpeedKm
	}
}

// formatDuration renders the travel time rounded up to whole minutes.
func formatDuration(distanceKm, speedKmh float64) string {
	minutes := int(math.Ceil(distanceKm / speedKmh * 60))
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}

	hours := minutes / 60
	rem := minutes % 60
	if rem == 0 {
		return fmt.Sprintf("%d hr", hours)
	}
	return fmt.Sprintf("%d hr %d min", hours, rem)
}

// formatMiles renders the distance label in miles.
func formatMiles(miles float64) string {
	if miles < 0.1 {
		return "< 0.1 miles"
	}
	return fmt.Sprintf("%.1f miles", miles)
}
