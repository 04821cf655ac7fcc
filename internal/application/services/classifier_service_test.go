package services

import (
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gedlingdental/cohort-go/internal/domain/cohort"
	"github.com/gedlingdental/cohort-go/internal/domain/geo"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.OutputToConsole = false
	cfg.DefaultLevel = slog.LevelError
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func TestTimeOfDayBucketIsTotalWithExactBoundaries(t *testing.T) {
	expected := map[int]cohort.TimeOfDay{
		0: cohort.TimeNight, 5: cohort.TimeNight,
		6: cohort.TimeMorning, 11: cohort.TimeMorning,
		12: cohort.TimeAfternoon, 17: cohort.TimeAfternoon,
		18: cohort.TimeEvening, 21: cohort.TimeEvening,
		22: cohort.TimeNight, 23: cohort.TimeNight,
	}

	valid := map[cohort.TimeOfDay]bool{
		cohort.TimeMorning: true, cohort.TimeAfternoon: true,
		cohort.TimeEvening: true, cohort.TimeNight: true,
	}

	for hour := 0; hour < 24; hour++ {
		bucket := timeOfDayBucket(hour)
		assert.True(t, valid[bucket], "hour %d produced unknown bucket %q", hour, bucket)
		if want, ok := expected[hour]; ok {
			assert.Equal(t, want, bucket, "hour %d", hour)
		}
	}
}

func TestOfficeOpenWeekdayWindow(t *testing.T) {
	tuesday := func(hour int) time.Time {
		return time.Date(2026, 3, 3, hour, 0, 0, 0, time.UTC)
	}

	assert.False(t, officeOpen(tuesday(8)))
	assert.True(t, officeOpen(tuesday(9)))
	assert.True(t, officeOpen(tuesday(16)))
	assert.False(t, officeOpen(tuesday(17)))

	// Weekends are closed regardless of hour.
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	for hour := 0; hour < 24; hour++ {
		assert.False(t, officeOpen(saturday.Add(time.Duration(hour)*time.Hour)), "saturday hour %d", hour)
		assert.False(t, officeOpen(sunday.Add(time.Duration(hour)*time.Hour)), "sunday hour %d", hour)
	}
}

func TestGeoBucketDerivationOrder(t *testing.T) {
	tests := []struct {
		name string
		loc  geo.Location
		want string
	}{
		{"gedling postcode wins", geo.Location{City: "Nottingham", Postcode: "NG4 1AA", Region: "England", Country: "GB"}, cohort.GeoGedling},
		{"nottingham without NG4", geo.Location{City: "Nottingham", Postcode: "NG1 1AA", Region: "England", Country: "GB"}, cohort.GeoNottingham},
		{"england fallback", geo.Location{City: "Unknown", Region: "England", Country: "GB"}, cohort.GeoEngland},
		{"uk national", geo.Location{Country: "GB"}, cohort.GeoUKNational},
		{"global", geo.Location{City: "Lyon", Region: "Auvergne", Country: "FR"}, cohort.GeoGlobal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geoBucket(tt.loc))
		})
	}
}

func TestIsLocal(t *testing.T) {
	assert.True(t, isLocal(geo.Location{Country: "GB", City: "Carlton"}))
	assert.True(t, isLocal(geo.Location{Country: "GB", City: "gedling"}), "town match is case-insensitive")
	assert.True(t, isLocal(geo.Location{Country: "GB", City: "Derby", Region: "England", Postcode: "DE1 2AB"}))
	assert.False(t, isLocal(geo.Location{Country: "GB", City: "Leeds", Region: "England", Postcode: "LS1 1AA"}))
	assert.False(t, isLocal(geo.Location{Country: "FR", City: "Gedling"}), "non-GB is never local")
	assert.False(t, isLocal(geo.Location{Country: "GB", City: "Cardiff", Region: "Wales", Postcode: "NG4 1AA"}), "postcode rule requires England")
}

func TestClassifyDevice(t *testing.T) {
	assert.Equal(t, cohort.DeviceMobile, classifyDevice("Mozilla/5.0 (X11)", "?1"))
	assert.Equal(t, cohort.DeviceDesktop, classifyDevice("Mozilla/5.0 (iPhone) Mobile", "?0"), "hint is authoritative")
	assert.Equal(t, cohort.DeviceMobile, classifyDevice("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile Safari", ""))
	assert.Equal(t, cohort.DeviceTablet, classifyDevice("Mozilla/5.0 (iPad; CPU OS 17_0)", ""))
	assert.Equal(t, cohort.DeviceDesktop, classifyDevice("Mozilla/5.0 (Windows NT 10.0; Win64)", ""))
}

func TestClassifyReferrerPriority(t *testing.T) {
	q := func(raw string) url.Values {
		parsed, err := url.ParseQuery(raw)
		assert.NoError(t, err)
		return parsed
	}

	// Paid click tokens beat everything, including a search referrer.
	assert.Equal(t, cohort.ReferrerPaid, classifyReferrer("https://www.google.com/", q("gclid=abc123")))
	assert.Equal(t, cohort.ReferrerPaid, classifyReferrer("", q("utm_medium=cpc")))

	assert.Equal(t, cohort.ReferrerOrganic, classifyReferrer("https://www.google.co.uk/search", q("")))
	assert.Equal(t, cohort.ReferrerOrganic, classifyReferrer("https://www.bing.com/", q("")))
	assert.Equal(t, cohort.ReferrerSocial, classifyReferrer("https://www.facebook.com/", q("")))
	assert.Equal(t, cohort.ReferrerSocial, classifyReferrer("https://t.co/abc", q("")))
	assert.Equal(t, cohort.ReferrerEmail, classifyReferrer("https://outlook.live.com/mail", q("")))
	assert.Equal(t, cohort.ReferrerEmail, classifyReferrer("", q("utm_medium=email")))
	assert.Equal(t, cohort.ReferrerDirect, classifyReferrer("", q("")))
	assert.Equal(t, cohort.ReferrerOther, classifyReferrer("https://example.org/blog", q("")))
}

func TestClassifyComposesSnapshot(t *testing.T) {
	svc := NewClassifierService(testLogger(t))

	snap := RequestSnapshot{
		UserAgent: "Mozilla/5.0 (iPhone) Mobile Safari",
		Referer:   "",
		Query:     url.Values{},
		Now:       time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), // Tuesday
		Location:  geo.Location{City: "Nottingham", Postcode: "NG4 2AA", Region: "England", Country: "GB"},
	}

	class := svc.Classify(snap)

	assert.Equal(t, cohort.DeviceMobile, class.Device)
	assert.Equal(t, cohort.TimeMorning, class.TimeOfDay)
	assert.True(t, class.OfficeOpen)
	assert.True(t, class.Weekday)
	assert.Equal(t, cohort.ReferrerDirect, class.Referrer)
	assert.Equal(t, cohort.GeoGedling, class.GeoBucket)
	assert.True(t, class.IsLocal)
}
