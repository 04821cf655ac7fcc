package services

import (
	"net/url"
	"strings"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
)

// IntentService infers the visitor's goal from path, query and traffic source.
type IntentService struct {
	logger *logging.ChanneledLogger
}

// NewIntentService creates a new intent inference service
func NewIntentService(logger *logging.ChanneledLogger) *IntentService {
	return &IntentService{logger: logger}
}

var (
	emergencyTokens = []string{"emergency", "urgent"}
	bookingTokens   = []string{"book", "appointment"}
	pricingTokens   = []string{"price", "cost", "fee"}
)

// Infer evaluates the intent decision list top to bottom and returns on the
// first match.
func (s *IntentService) Infer(path string, referrer cohort.ReferrerClass, query url.Values) cohort.Intent {
	haystack := strings.ToLower(path + "?" + query.Encode())

	if containsAny(haystack, emergencyTokens) {
		return cohort.IntentEmergency
	}
	if containsAny(haystack, bookingTokens) {
		return cohort.IntentBooking
	}
	if containsAny(haystack, pricingTokens) || referrer == cohort.ReferrerPaid {
		return cohort.IntentPriceShopper
	}
	if referrer == cohort.ReferrerOrganic || referrer == cohort.ReferrerSocial {
		return cohort.IntentResearch
	}
	return cohort.IntentUnknown
}

func containsAny(haystack string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}
