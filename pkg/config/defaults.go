// Package config provides centralized default values for the cohort engine
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if valStr := os.Getenv(key); valStr != "" {
		parts := strings.Split(valStr, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Practice Configuration
	PracticeCity     string
	PracticeRegion   string
	PracticeCountry  string
	PracticePostcode string
	PracticeLat      float64
	PracticeLng      float64
	EmergencyPhone   string

	// Business Hours (weekdays only, half-open hour window)
	BusinessOpenHour  int
	BusinessCloseHour int

	// Locality
	LocalTowns            []string
	LocalPostcodePrefixes []string
	GedlingPostcodePrefix string

	// Geo Lookup
	GeoProviderURL    string
	GeoLookupTimeout  time.Duration
	GeoCacheTTL       time.Duration
	GeoCacheMaxSize   int
	GeoFallbackCity   string
	GeoFallbackRegion string

	// Variant Assignment
	VariantIDs       []string
	VariantWeights   []string
	VariantCookie    string
	VariantCookieTTL time.Duration

	// Telemetry
	TelemetryEnabled        bool
	TelemetryBufferSize     int
	TelemetryFlushThreshold int
	TelemetryFlushInterval  time.Duration
	TelemetryDBPath         string
	TelemetryDBURL          string

	// Auth
	JWTSecret         string
	AdminPasswordHash string
	AuthTokenTTL      time.Duration

	// Observability
	SlowPipelineThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Practice Configuration
	PracticeCity = getEnvString("PRACTICE_CITY", "Nottingham")
	PracticeRegion = getEnvString("PRACTICE_REGION", "England")
	PracticeCountry = getEnvString("PRACTICE_COUNTRY", "GB")
	PracticePostcode = getEnvString("PRACTICE_POSTCODE", "NG4 3HP")
	PracticeLat = getEnvFloat("PRACTICE_LAT", 52.9766)
	PracticeLng = getEnvFloat("PRACTICE_LNG", -1.0812)
	EmergencyPhone = getEnvString("EMERGENCY_PHONE", "0115 961 1161")

	// Business Hours
	BusinessOpenHour = getEnvInt("BUSINESS_OPEN_HOUR", 9)
	BusinessCloseHour = getEnvInt("BUSINESS_CLOSE_HOUR", 17)

	// Locality
	LocalTowns = getEnvStringSlice("LOCAL_TOWNS", []string{
		"Nottingham", "Gedling", "Carlton", "Netherfield", "Mapperley", "Arnold", "Burton Joyce",
	})
	LocalPostcodePrefixes = getEnvStringSlice("LOCAL_POSTCODE_PREFIXES", []string{"NG", "DE"})
	GedlingPostcodePrefix = getEnvString("GEDLING_POSTCODE_PREFIX", "NG4")

	// Geo Lookup
	GeoProviderURL = getEnvString("GEO_PROVIDER_URL", "http://ip-api.com/json")
	GeoLookupTimeout = getEnvDuration("GEO_LOOKUP_TIMEOUT", 1500*time.Millisecond)
	GeoCacheTTL = getEnvDuration("GEO_CACHE_TTL", 30*time.Minute)
	GeoCacheMaxSize = getEnvInt("GEO_CACHE_MAX_SIZE", 5000)
	GeoFallbackCity = getEnvString("GEO_FALLBACK_CITY", "Nottingham")
	GeoFallbackRegion = getEnvString("GEO_FALLBACK_REGION", "England")

	// Variant Assignment
	VariantIDs = getEnvStringSlice("VARIANT_IDS", []string{"A", "B", "C"})
	VariantWeights = getEnvStringSlice("VARIANT_WEIGHTS", []string{"1", "1", "1"})
	VariantCookie = getEnvString("VARIANT_COOKIE", "ab_variant")
	VariantCookieTTL = time.Duration(getEnvInt("VARIANT_COOKIE_TTL_DAYS", 30)) * 24 * time.Hour

	// Telemetry
	TelemetryEnabled = getEnvBool("TELEMETRY_ENABLED", true)
	TelemetryBufferSize = getEnvInt("TELEMETRY_BUFFER_SIZE", 1024)
	TelemetryFlushThreshold = getEnvInt("TELEMETRY_FLUSH_THRESHOLD", 256)
	TelemetryFlushInterval = getEnvDuration("TELEMETRY_FLUSH_INTERVAL", 30*time.Second)
	TelemetryDBPath = getEnvString("TELEMETRY_DB_PATH", "telemetry.db")
	TelemetryDBURL = getEnvString("TELEMETRY_DB_URL", "")

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
	AuthTokenTTL = time.Duration(getEnvInt("AUTH_TOKEN_TTL_HOURS", 24)) * time.Hour

	// Observability
	SlowPipelineThreshold = getEnvDuration("SLOW_PIPELINE_THRESHOLD", 50*time.Millisecond)
}
