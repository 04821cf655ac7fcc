// Package geoip resolves client IPs to geographic locations. Lookups are
// bounded by a short timeout and always degrade to a deterministic fallback
// location so the request pipeline is never blocked or failed by the provider.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gedlingdental/cohort-go/internal/domain/geo"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/metrics"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// Platform geo hint headers, populated by the CDN/edge when available.
// Hints win over a network lookup.
const (
	HintCity      = "X-Geo-City"
	HintRegion    = "X-Geo-Region"
	HintCountry   = "X-Geo-Country"
	HintPostcode  = "X-Geo-Postcode"
	HintLatitude  = "X-Geo-Latitude"
	HintLongitude = "X-Geo-Longitude"
)

// Resolver performs IP-to-location lookups against an external provider.
type Resolver struct {
	client      *http.Client
	cache       *lookupCache
	logger      *logging.ChanneledLogger
	providerURL string
	timeout     time.Duration
	fallback    geo.Location
}

// providerResponse matches the ip-api.com JSON payload.
type providerResponse struct {
	Status      string  `json:"status"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// NewResolver creates a resolver from the configured provider and fallback.
func NewResolver(logger *logging.ChanneledLogger) *Resolver {
	return &Resolver{
		client:      &http.Client{Timeout: config.GeoLookupTimeout},
		cache:       newLookupCache(config.GeoCacheTTL, config.GeoCacheMaxSize),
		logger:      logger,
		providerURL: config.GeoProviderURL,
		timeout:     config.GeoLookupTimeout,
		fallback: geo.Location{
			City:     config.GeoFallbackCity,
			Region:   config.GeoFallbackRegion,
			Country:  config.PracticeCountry,
			Postcode: config.PracticePostcode,
			Lat:      config.PracticeLat,
			Lng:      config.PracticeLng,
		},
	}
}

// Fallback returns the deterministic default location used when no lookup is
// possible. Also serves local development, where every client IP is loopback.
func (r *Resolver) Fallback() geo.Location {
	return r.fallback
}

// FromHints builds a location from platform geo hint headers, if present.
func (r *Resolver) FromHints(h http.Header) (geo.Location, bool) {
	city := h.Get(HintCity)
	country := h.Get(HintCountry)
	if city == "" && country == "" {
		return geo.Location{}, false
	}

	loc := geo.Location{
		City:     city,
		Region:   h.Get(HintRegion),
		Country:  country,
		Postcode: h.Get(HintPostcode),
	}
	if lat, err := strconv.ParseFloat(h.Get(HintLatitude), 64); err == nil {
		loc.Lat = lat
	}
	if lng, err := strconv.ParseFloat(h.Get(HintLongitude), 64); err == nil {
		loc.Lng = lng
	}
	return loc, true
}

// Resolve maps a client IP to a location. It never returns an error: private,
// loopback and unparseable addresses, provider errors and timeouts all yield
// the fallback location.
func (r *Resolver) Resolve(ctx context.Context, ip string) geo.Location {
	if !isPublicIP(ip) {
		return r.fallback
	}

	if loc, ok := r.cache.get(ip); ok {
		return loc
	}

	loc, err := r.lookup(ctx, ip)
	if err != nil {
		r.logger.Geo().Warn("Geo lookup failed, using fallback",
			"ip", anonymizeIP(ip), "error", err.Error())
		metrics.GeoLookupFailures.WithLabelValues(failureCause(err)).Inc()
		return r.fallback
	}

	r.cache.set(ip, loc)
	return loc
}

func (r *Resolver) lookup(ctx context.Context, ip string) (geo.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", r.providerURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return geo.Location{}, fmt.Errorf("failed to build geo request: %w", err)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return geo.Location{}, fmt.Errorf("geo provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Location{}, fmt.Errorf("geo provider returned status %d", resp.StatusCode)
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Location{}, fmt.Errorf("failed to decode geo response: %w", err)
	}
	if payload.Status != "success" {
		return geo.Location{}, fmt.Errorf("geo provider lookup unsuccessful for %s", anonymizeIP(ip))
	}

	r.logger.Geo().Debug("Geo lookup completed",
		"ip", anonymizeIP(ip),
		"city", payload.City,
		"country", payload.CountryCode,
		"duration", time.Since(start))

	return geo.Location{
		City:     payload.City,
		Region:   payload.RegionName,
		Country:  payload.CountryCode,
		Postcode: payload.Zip,
		Lat:      payload.Lat,
		Lng:      payload.Lon,
	}, nil
}

func failureCause(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "error"
}

// isPublicIP reports whether the address is a routable unicast address worth
// sending to the provider.
func isPublicIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() ||
		parsed.IsLinkLocalUnicast() || parsed.IsLinkLocalMulticast() {
		return false
	}
	return true
}

// anonymizeIP strips the last octet before an IP reaches any log or store.
func anonymizeIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	// Truncate IPv6 to the /48 prefix.
	v6 := parsed.To16()
	masked := v6.Mask(net.CIDRMask(48, 128))
	return masked.String()
}

// AnonymizeIP exposes the truncation rule for telemetry callers.
func AnonymizeIP(ip string) string {
	return anonymizeIP(ip)
}
