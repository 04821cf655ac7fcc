package services

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/metrics"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// VariantService performs sticky A/B variant assignment. A visitor's variant
// lives only in their cookie; the service holds no per-visitor state.
type VariantService struct {
	logger      *logging.ChanneledLogger
	variants    []string
	weights     []int
	totalWeight int
	cookieName  string
	cookieTTL   time.Duration
}

// NewVariantService creates a variant assigner from the configured variant
// set and weights. Malformed or missing weights default to equal weighting.
func NewVariantService(logger *logging.ChanneledLogger) *VariantService {
	variants := config.VariantIDs
	weights := make([]int, len(variants))
	total := 0

	for i := range variants {
		weight := 1
		if i < len(config.VariantWeights) {
			if parsed, err := strconv.Atoi(config.VariantWeights[i]); err == nil && parsed > 0 {
				weight = parsed
			}
		}
		weights[i] = weight
		total += weight
	}

	return &VariantService{
		logger:      logger,
		variants:    variants,
		weights:     weights,
		totalWeight: total,
		cookieName:  config.VariantCookie,
		cookieTTL:   config.VariantCookieTTL,
	}
}

// CookieName returns the name of the sticky assignment cookie.
func (s *VariantService) CookieName() string { return s.cookieName }

// CookieMaxAge returns the cookie TTL in seconds.
func (s *VariantService) CookieMaxAge() int { return int(s.cookieTTL.Seconds()) }

// IsValid reports whether a cookie value names a configured variant.
// Anything else is treated as unassigned.
func (s *VariantService) IsValid(value string) bool {
	for _, v := range s.variants {
		if v == value {
			return true
		}
	}
	return false
}

// Assign performs a weighted random draw over the variant set.
func (s *VariantService) Assign() string {
	if len(s.variants) == 0 || s.totalWeight <= 0 {
		return ""
	}

	draw := rand.Intn(s.totalWeight)
	for i, weight := range s.weights {
		if draw < weight {
			metrics.VariantAssignments.WithLabelValues(s.variants[i]).Inc()
			s.logger.Variant().Debug("Variant assigned", "variant", s.variants[i])
			return s.variants[i]
		}
		draw -= weight
	}

	return s.variants[len(s.variants)-1]
}
