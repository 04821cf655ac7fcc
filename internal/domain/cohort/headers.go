package cohort

// Header names used to propagate classification to rendering and caches.
// The same names appear on the forwarded request and on the response.
const (
	HeaderSummary     = "X-Cohort"
	HeaderGeo         = "X-Cohort-Geo"
	HeaderTime        = "X-Cohort-Time"
	HeaderOfficeHours = "X-Cohort-Office-Hours"
	HeaderDevice      = "X-Cohort-Device"
	HeaderSource      = "X-Cohort-Source"
	HeaderIntent      = "X-Cohort-Intent"
	HeaderCity        = "X-Cohort-City"
	HeaderCountry     = "X-Cohort-Country"
	HeaderLocal       = "X-Cohort-Local"
	HeaderTravel      = "X-Cohort-Travel"

	// HeaderDuration reports the pipeline's own execution time.
	HeaderDuration = "X-Cohort-Duration"

	// HeaderProcessed marks a response already handled by the pipeline so
	// internal re-invocations pass through without reclassifying.
	HeaderProcessed = "X-Cohort-Processed"

	// HeaderVariant exposes the assigned A/B variant to client scripts.
	HeaderVariant = "X-AB-Variant"

	// HeaderRewrite is set by internal rewrites and short-circuits the
	// pipeline when present on the inbound request.
	HeaderRewrite = "X-Middleware-Rewrite"
)
