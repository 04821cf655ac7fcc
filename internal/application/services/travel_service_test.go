package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gedlingdental/cohort-go/internal/domain/geo"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

func TestHaversineKm(t *testing.T) {
	practice := geo.LatLng{Lat: config.PracticeLat, Lng: config.PracticeLng}

	assert.Zero(t, haversineKm(practice, practice), "identical points are zero distance")

	cityCentre := geo.LatLng{Lat: 52.9548, Lng: -1.1581}
	forward := haversineKm(practice, cityCentre)
	assert.InDelta(t, forward, haversineKm(cityCentre, practice), 1e-9, "distance is symmetric")

	// Gedling to Nottingham city centre is roughly 5.5km.
	assert.Greater(t, forward, 4.0)
	assert.Less(t, forward, 7.0)
}

func TestModeForDistanceThresholds(t *testing.T) {
	tests := []struct {
		km       float64
		wantMode string
	}{
		{0.5, "walking"},
		{1.999, "walking"},
		{2.0, "transit"},
		{9.999, "transit"},
		{10.0, "driving"},
		{250, "driving"},
	}

	for _, tt := range tests {
		mode, _ := modeForDistance(tt.km)
		assert.Equal(t, tt.wantMode, mode, "%.3f km", tt.km)
	}
}

func TestFormatDuration(t *testing.T) {
	// 1km walking at 5km/h is 12 minutes exactly.
	assert.Equal(t, "12 min", formatDuration(1, walkingSpeedKm))
	// 1.1km walking is 13.2 minutes, rounded up.
	assert.Equal(t, "14 min", formatDuration(1.1, walkingSpeedKm))
	// 30km driving at 30km/h is exactly one hour.
	assert.Equal(t, "1 hr", formatDuration(30, drivingSpeedKm))
	// 45km driving is 90 minutes.
	assert.Equal(t, "1 hr 30 min", formatDuration(45, drivingSpeedKm))
}

func TestFormatMiles(t *testing.T) {
	assert.Equal(t, "< 0.1 miles", formatMiles(0.05))
	assert.Equal(t, "0.1 miles", formatMiles(0.1))
	assert.Equal(t, "3.4 miles", formatMiles(3.42))
}

func TestEstimate(t *testing.T) {
	svc := NewTravelService(testLogger(t))

	t.Run("invalid origin returns nil", func(t *testing.T) {
		assert.Nil(t, svc.Estimate(geo.LatLng{}, ""))
	})

	t.Run("defaults to primary practice", func(t *testing.T) {
		est := svc.Estimate(geo.LatLng{Lat: 52.9548, Lng: -1.1581}, "")
		if assert.NotNil(t, est) {
			assert.Equal(t, "transit", est.Mode)
			assert.Contains(t, est.EstimatedTime, "min")
			assert.Contains(t, est.DistanceLabel, "miles")
		}
	})

	t.Run("named destination", func(t *testing.T) {
		origin := geo.LatLng{Lat: 53.0050, Lng: -1.1271}
		est := svc.Estimate(origin, "arnold")
		if assert.NotNil(t, est) {
			assert.Equal(t, "walking", est.Mode, "origin is on top of the arnold location")
			assert.Equal(t, "< 0.1 miles", est.DistanceLabel)
		}
	})

	t.Run("unknown key falls back to primary", func(t *testing.T) {
		origin := geo.LatLng{Lat: 52.9548, Lng: -1.1581}
		named := svc.Estimate(origin, "no-such-place")
		direct := svc.Estimate(origin, "")
		if assert.NotNil(t, named) && assert.NotNil(t, direct) {
			assert.Equal(t, direct.DistanceKm, named.DistanceKm)
		}
	})
}
