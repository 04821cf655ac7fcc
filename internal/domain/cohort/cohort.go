// Package cohort defines the per-request classification record shared by the
// middleware pipeline and downstream rendering.
package cohort

import "fmt"

// Device is the coarse device class derived from client hints or user agent.
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

// TimeOfDay buckets the UTC hour into four fixed windows.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"   // [6,12)
	TimeAfternoon TimeOfDay = "afternoon" // [12,18)
	TimeEvening   TimeOfDay = "evening"   // [18,22)
	TimeNight     TimeOfDay = "night"     // [22,6)
)

// ReferrerClass categorizes the traffic source of a request.
type ReferrerClass string

const (
	ReferrerDirect  ReferrerClass = "direct"
	ReferrerOrganic ReferrerClass = "organic-search"
	ReferrerPaid    ReferrerClass = "paid"
	ReferrerSocial  ReferrerClass = "social"
	ReferrerEmail   ReferrerClass = "email"
	ReferrerOther   ReferrerClass = "other"
)

// Intent is the inferred visitor goal, chosen by priority order.
type Intent string

const (
	IntentEmergency    Intent = "emergency"
	IntentBooking      Intent = "booking"
	IntentPriceShopper Intent = "price-shopping"
	IntentResearch     Intent = "research"
	IntentUnknown      Intent = "unknown"
)

// TravelEstimate describes distance and travel time from the visitor's
// resolved location to a practice location.
type TravelEstimate struct {
	DistanceKm    float64 `json:"distanceKm"`
	DistanceLabel string  `json:"distance"`
	EstimatedTime string  `json:"estimatedTime"`
	Mode          string  `json:"mode"`
}

// Cohort is the canonical classification for one request. It is a pure
// function of the inbound request snapshot plus wall-clock time and is never
// persisted.
type Cohort struct {
	Geo        string          `json:"geo"`
	Device     Device          `json:"device"`
	TimeOfDay  TimeOfDay       `json:"timeOfDay"`
	OfficeOpen bool            `json:"officeOpen"`
	Weekday    bool            `json:"weekday"`
	Referrer   ReferrerClass   `json:"referrer"`
	Intent     Intent          `json:"intent"`
	Travel     *TravelEstimate `json:"travel,omitempty"`
	IsLocal    bool            `json:"isLocal"`

	// Resolved location fields carried for per-field headers.
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
}

// Summary serializes the cohort into the single propagation header value.
func (c *Cohort) Summary() string {
	return fmt.Sprintf("geo=%s; time=%s; office-hours=%t; device=%s; source=%s",
		c.Geo, c.TimeOfDay, c.OfficeOpen, c.Device, c.Referrer)
}
