package services

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/domain/geo"
)

// gedlingMorningSnapshot is the canonical local-visitor request: a mobile
// visitor from an NG4 postcode on a Tuesday morning with no referrer.
func gedlingMorningSnapshot() RequestSnapshot {
	return RequestSnapshot{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile Safari",
		Referer:   "",
		Query:     url.Values{},
		Now:       time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		Location:  geo.Location{City: "Nottingham", Postcode: "NG4 2AA", Region: "England", Country: "GB"},
	}
}

func TestAssembleLocalMorningVisitor(t *testing.T) {
	logger := testLogger(t)
	classifier := NewClassifierService(logger)
	intents := NewIntentService(logger)
	assembler := NewAssemblerService(logger)

	snap := gedlingMorningSnapshot()
	class := classifier.Classify(snap)
	intent := intents.Infer("/", class.Referrer, snap.Query)
	ch := assembler.Assemble(snap, class, intent, nil)

	assert.Equal(t,
		"geo=gedling; time=morning; office-hours=true; device=mobile; source=direct",
		ch.Summary())
	assert.True(t, ch.IsLocal)
	assert.Equal(t, cohort.IntentUnknown, ch.Intent)
	assert.Equal(t, "Nottingham", ch.City)
	assert.Equal(t, "GB", ch.Country)
}

func TestWriteResponseHeaders(t *testing.T) {
	logger := testLogger(t)
	assembler := NewAssemblerService(logger)

	ch := &cohort.Cohort{
		Geo:        cohort.GeoGedling,
		Device:     cohort.DeviceMobile,
		TimeOfDay:  cohort.TimeMorning,
		OfficeOpen: true,
		Referrer:   cohort.ReferrerDirect,
		Intent:     cohort.IntentBooking,
		IsLocal:    true,
		City:       "Nottingham",
		Country:    "GB",
		Travel: &cohort.TravelEstimate{
			DistanceKm:    1.2,
			DistanceLabel: "0.7 miles",
			EstimatedTime: "15 min",
			Mode:          "walking",
		},
	}

	h := http.Header{}
	assembler.WriteResponseHeaders(h, ch)

	assert.Equal(t, ch.Summary(), h.Get(cohort.HeaderSummary))
	assert.Equal(t, "gedling", h.Get(cohort.HeaderGeo))
	assert.Equal(t, "morning", h.Get(cohort.HeaderTime))
	assert.Equal(t, "true", h.Get(cohort.HeaderOfficeHours))
	assert.Equal(t, "mobile", h.Get(cohort.HeaderDevice))
	assert.Equal(t, "direct", h.Get(cohort.HeaderSource))
	assert.Equal(t, "booking", h.Get(cohort.HeaderIntent))
	assert.Equal(t, "true", h.Get(cohort.HeaderLocal))
	assert.Equal(t, "walking 15 min", h.Get(cohort.HeaderTravel))

	vary := h.Get("Vary")
	for _, name := range varyHeaders {
		assert.Contains(t, vary, name)
	}
}

func TestRequestHeadersOmitVary(t *testing.T) {
	assembler := NewAssemblerService(testLogger(t))

	h := http.Header{}
	assembler.WriteRequestHeaders(h, &cohort.Cohort{Geo: cohort.GeoGlobal})

	assert.Empty(t, h.Get("Vary"))
	assert.Empty(t, h.Get(cohort.HeaderTravel), "no travel header without an estimate")
}
