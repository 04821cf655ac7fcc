// Package services provides application-level services that orchestrate the
// cohort classification pipeline and coordinate infrastructure dependencies.
package services

import (
	"net/url"
	"strings"
	"time"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/domain/geo"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// RequestSnapshot captures every inbound field classification depends on.
// Classification is a pure function of one snapshot, so re-running it for the
// same snapshot always yields the same result.
type RequestSnapshot struct {
	UserAgent  string
	MobileHint string // Sec-CH-UA-Mobile, "?1" when mobile
	Referer    string
	Query      url.Values
	Now        time.Time
	Location   geo.Location
}

// Classification holds the classifier's derived fields before intent and
// travel are merged in by the assembler.
type Classification struct {
	Device     cohort.Device
	TimeOfDay  cohort.TimeOfDay
	OfficeOpen bool
	Weekday    bool
	Referrer   cohort.ReferrerClass
	GeoBucket  string
	IsLocal    bool
}

// ClassifierService derives cohort fields from a request snapshot.
type ClassifierService struct {
	logger *logging.ChanneledLogger
}

// NewClassifierService creates a new classifier application service
func NewClassifierService(logger *logging.ChanneledLogger) *ClassifierService {
	return &ClassifierService{logger: logger}
}

// Classify derives all classifier fields from the snapshot.
func (s *ClassifierService) Classify(snap RequestSnapshot) Classification {
	now := snap.Now.UTC()

	return Classification{
		Device:     classifyDevice(snap.UserAgent, snap.MobileHint),
		TimeOfDay:  timeOfDayBucket(now.Hour()),
		OfficeOpen: officeOpen(now),
		Weekday:    isWeekday(now),
		Referrer:   classifyReferrer(snap.Referer, snap.Query),
		GeoBucket:  geoBucket(snap.Location),
		IsLocal:    isLocal(snap.Location),
	}
}

var mobileTokens = []string{"mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini"}

var tabletTokens = []string{"ipad", "tablet", "kindle", "silk"}

// classifyDevice prefers the structured client hint, then falls back to
// user-agent token matching.
func classifyDevice(userAgent, mobileHint string) cohort.Device {
	ua := strings.ToLower(userAgent)

	for _, token := range tabletTokens {
		if strings.Contains(ua, token) {
			return cohort.DeviceTablet
		}
	}

	// The structured hint is authoritative when the browser sends one.
	switch mobileHint {
	case "?1":
		return cohort.DeviceMobile
	case "?0":
		return cohort.DeviceDesktop
	}

	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return cohort.DeviceMobile
		}
	}

	return cohort.DeviceDesktop
}

// timeOfDayBucket partitions the UTC hour: [0,6) and [22,24) night,
// [6,12) morning, [12,18) afternoon, [18,22) evening.
func timeOfDayBucket(hour int) cohort.TimeOfDay {
	switch {
	case hour < 6:
		return cohort.TimeNight
	case hour < 12:
		return cohort.TimeMorning
	case hour < 18:
		return cohort.TimeAfternoon
	case hour < 22:
		return cohort.TimeEvening
	default:
		return cohort.TimeNight
	}
}

func isWeekday(t time.Time) bool {
	day := t.Weekday()
	return day != time.Saturday && day != time.Sunday
}

// officeOpen is true on weekdays within the configured business-hours window.
func officeOpen(t time.Time) bool {
	if !isWeekday(t) {
		return false
	}
	hour := t.Hour()
	return hour >= config.BusinessOpenHour && hour < config.BusinessCloseHour
}

// geoBucket derives the geographic bucket label. Priority order matters:
// the postcode rule must be checked before the bare city rule.
func geoBucket(loc geo.Location) string {
	postcode := strings.ToUpper(strings.TrimSpace(loc.Postcode))

	switch {
	case loc.City == config.PracticeCity && strings.HasPrefix(postcode, config.GedlingPostcodePrefix):
		return cohort.GeoGedling
	case loc.City == config.PracticeCity:
		return cohort.GeoNottingham
	case loc.Region == "England":
		return cohort.GeoEngland
	case loc.Country == "GB":
		return cohort.GeoUKNational
	default:
		return cohort.GeoGlobal
	}
}

// isLocal is true for GB visitors in one of the configured local towns, or in
// England with a local postcode prefix.
func isLocal(loc geo.Location) bool {
	if loc.Country != "GB" {
		return false
	}

	for _, town := range config.LocalTowns {
		if strings.EqualFold(loc.City, town) {
			return true
		}
	}

	if loc.Region == "England" {
		postcode := strings.ToUpper(strings.TrimSpace(loc.Postcode))
		for _, prefix := range config.LocalPostcodePrefixes {
			if prefix != "" && strings.HasPrefix(postcode, strings.ToUpper(prefix)) {
				return true
			}
		}
	}

	return false
}

var paidClickParams = []string{"gclid", "fbclid", "msclkid", "ttclid"}

var paidMediums = map[string]bool{"cpc": true, "ppc": true, "paid": true, "paid-social": true}

var searchEngineHosts = []string{"google.", "bing.", "duckduckgo.", "yahoo.", "ecosia.", "startpage."}

var socialHosts = []string{"facebook.", "instagram.", "twitter.", "t.co", "x.com", "linkedin.", "tiktok.", "pinterest.", "youtube."}

var emailTokens = []string{"mail.", "outlook.", "webmail", "newsletter"}

// classifyReferrer buckets the traffic source. Priority order per the
// decision list: paid, organic search, social, email, direct, other.
func classifyReferrer(referer string, query url.Values) cohort.ReferrerClass {
	for _, param := range paidClickParams {
		if query.Get(param) != "" {
			return cohort.ReferrerPaid
		}
	}
	if paidMediums[strings.ToLower(query.Get("utm_medium"))] {
		return cohort.ReferrerPaid
	}

	if strings.EqualFold(query.Get("utm_medium"), "email") ||
		strings.EqualFold(query.Get("utm_source"), "newsletter") {
		return cohort.ReferrerEmail
	}

	if referer == "" {
		return cohort.ReferrerDirect
	}

	host := referrerHost(referer)
	if host == "" {
		return cohort.ReferrerOther
	}

	for _, engine := range searchEngineHosts {
		if strings.Contains(host, engine) {
			return cohort.ReferrerOrganic
		}
	}
	for _, social := range socialHosts {
		if strings.Contains(host, social) {
			return cohort.ReferrerSocial
		}
	}
	for _, token := range emailTokens {
		if strings.Contains(host, token) {
			return cohort.ReferrerEmail
		}
	}

	return cohort.ReferrerOther
}

func referrerHost(referer string) string {
	parsed, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
