package services

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
)

// varyHeaders lists the cohort headers a personalized response depends on,
// declared so upstream caches never serve one cohort's response to another.
var varyHeaders = []string{
	cohort.HeaderGeo,
	cohort.HeaderTime,
	cohort.HeaderOfficeHours,
	cohort.HeaderDevice,
	cohort.HeaderSource,
	cohort.HeaderIntent,
	cohort.HeaderLocal,
}

// AssemblerService merges classifier, intent and travel output into the
// canonical cohort record and writes its wire representation.
type AssemblerService struct {
	logger *logging.ChanneledLogger
}

// NewAssemblerService creates a new cohort assembler service
func NewAssemblerService(logger *logging.ChanneledLogger) *AssemblerService {
	return &AssemblerService{logger: logger}
}

// Assemble builds the cohort record for one request.
func (s *AssemblerService) Assemble(snap RequestSnapshot, class Classification, intent cohort.Intent, travel *cohort.TravelEstimate) *cohort.Cohort {
	return &cohort.Cohort{
		Geo:        class.GeoBucket,
		Device:     class.Device,
		TimeOfDay:  class.TimeOfDay,
		OfficeOpen: class.OfficeOpen,
		Weekday:    class.Weekday,
		Referrer:   class.Referrer,
		Intent:     intent,
		Travel:     travel,
		IsLocal:    class.IsLocal,
		City:       snap.Location.City,
		Region:     snap.Location.Region,
		Country:    snap.Location.Country,
		Postcode:   snap.Location.Postcode,
	}
}

// WriteRequestHeaders attaches per-field cohort headers plus the summary to
// the forwarded request so server-rendered pages read the same values.
func (s *AssemblerService) WriteRequestHeaders(h http.Header, ch *cohort.Cohort) {
	s.writeFields(h, ch)
}

// WriteResponseHeaders attaches the cohort headers, the cache variance
// declaration and nothing else; the timing header is written by the caller
// once the pipeline completes.
func (s *AssemblerService) WriteResponseHeaders(h http.Header, ch *cohort.Cohort) {
	s.writeFields(h, ch)
	h.Set("Vary", strings.Join(varyHeaders, ", "))
}

func (s *AssemblerService) writeFields(h http.Header, ch *cohort.Cohort) {
	h.Set(cohort.HeaderSummary, ch.Summary())
	h.Set(cohort.HeaderGeo, ch.Geo)
	h.Set(cohort.HeaderTime, string(ch.TimeOfDay))
	h.Set(cohort.HeaderOfficeHours, strconv.FormatBool(ch.OfficeOpen))
	h.Set(cohort.HeaderDevice, string(ch.Device))
	h.Set(cohort.HeaderSource, string(ch.Referrer))
	h.Set(cohort.HeaderIntent, string(ch.Intent))
	h.Set(cohort.HeaderCity, ch.City)
	h.Set(cohort.HeaderCountry, ch.Country)
	h.Set(cohort.HeaderLocal, strconv.FormatBool(ch.IsLocal))
	if ch.Travel != nil {
		h.Set(cohort.HeaderTravel, ch.Travel.Mode+" "+ch.Travel.EstimatedTime)
	}
}
