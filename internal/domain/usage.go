package domain

import "time"

// UsageEvent captures a single outbound call to an upstream provider.
type UsageEvent struct {
	ID         string
	Provider   string
	Method     string
	Endpoint   string
	StatusCode int
	Duration   time.Duration
	Error      string
	OccurredAt time.Time
}

// Failed reports whether the call errored or got a non-2xx answer.
func (e UsageEvent) Failed() bool {
	return e.Error != "" || e.StatusCode < 200 || e.StatusCode > 299
}

// UsageSummary aggregates usage events per provider.
type UsageSummary struct {
	Provider   string
	Calls      int
	Failures   int
	AvgLatency time.Duration
}
