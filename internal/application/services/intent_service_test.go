package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
)

func TestInferWalksDecisionListInOrder(t *testing.T) {
	svc := NewIntentService(testLogger(t))
	none := url.Values{}

	tests := []struct {
		name     string
		path     string
		referrer cohort.ReferrerClass
		query    url.Values
		want     cohort.Intent
	}{
		{"emergency in path", "/emergency-dentist", cohort.ReferrerDirect, none, cohort.IntentEmergency},
		{"urgent in query", "/contact", cohort.ReferrerDirect, url.Values{"reason": {"urgent"}}, cohort.IntentEmergency},
		{"emergency beats booking", "/emergency-appointment", cohort.ReferrerDirect, none, cohort.IntentEmergency},
		{"booking in path", "/book-online", cohort.ReferrerDirect, none, cohort.IntentBooking},
		{"appointment in path", "/appointments", cohort.ReferrerOrganic, none, cohort.IntentBooking},
		{"pricing token", "/treatment-costs", cohort.ReferrerDirect, none, cohort.IntentPriceShopper},
		{"fee token", "/fees", cohort.ReferrerDirect, none, cohort.IntentPriceShopper},
		{"paid traffic without tokens", "/invisalign", cohort.ReferrerPaid, none, cohort.IntentPriceShopper},
		{"organic research", "/blog/teeth-whitening", cohort.ReferrerOrganic, none, cohort.IntentResearch},
		{"social research", "/about", cohort.ReferrerSocial, none, cohort.IntentResearch},
		{"direct unknown", "/", cohort.ReferrerDirect, none, cohort.IntentUnknown},
		{"other referrer unknown", "/team", cohort.ReferrerOther, none, cohort.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Infer(tt.path, tt.referrer, tt.query))
		})
	}
}

func TestInferMatchingIsCaseInsensitive(t *testing.T) {
	svc := NewIntentService(testLogger(t))
	assert.Equal(t, cohort.IntentEmergency, svc.Infer("/EMERGENCY", cohort.ReferrerDirect, url.Values{}))
	assert.Equal(t, cohort.IntentBooking, svc.Infer("/Book", cohort.ReferrerDirect, url.Values{}))
}
