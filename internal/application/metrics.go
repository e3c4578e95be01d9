package application

import "expvar"

// Counters published under /api/debug/vars.
var (
	metricSignups       = expvar.NewInt("storefront_signups_total")
	metricOTPIssued     = expvar.NewInt("storefront_otp_issued_total")
	metricOTPFailed     = expvar.NewInt("storefront_otp_failed_total")
	metricVerifications = expvar.NewInt("storefront_verifications_total")
	metricSignins       = expvar.NewInt("storefront_signins_total")
	metricCheckouts     = expvar.NewInt("storefront_checkouts_total")
	metricReviews       = expvar.NewInt("storefront_reviews_total")
)
