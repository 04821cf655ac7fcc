// Package telemetry defines the append-only page-view event record.
package telemetry

import "time"

// Entry is one telemetry event. AnonymizedIP must already be truncated when
// an Entry is constructed; no raw IP is ever carried on this type.
type Entry struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	EventType    string    `json:"eventType"`
	AnonymizedIP string    `json:"ip"`
	UserAgent    string    `json:"userAgent"`
	Path         string    `json:"path"`
	GeoBucket    string    `json:"geoBucket"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Device       string    `json:"device"`
	Variant      string    `json:"variant,omitempty"`
}
