// Package metrics emits application metrics through the global telemetry
// system. All emitters are nil-safe so code paths work before
// InitMetrics runs (tests, CLI mode).
package metrics

import (
	"time"

	"github.com/dayflow/dayflow/internal/observability"
)

// Metric names following Prometheus conventions.
const (
	AdmissionTotalName      = "admission_requests_total"
	AdmissionRejectedName   = "admission_rejections_total"
	ProviderRequestsName    = "provider_requests_total"
	ProviderDurationName    = "provider_request_duration_ms"
	ScheduleItemsName       = "schedule_items"
	SchemaMismatchTotalName = "schedule_schema_mismatch_total"
	RateLimitThrottledName  = "ratelimit_throttled_total"
)

// RecordAdmission records the outcome of one pass through the admission
// pipeline ("accepted" or a rejection reason).
func RecordAdmission(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionTotalName,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordRejection records a rejected request by reason.
func RecordRejection(reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionRejectedName,
			1,
			map[string]string{"reason": reason},
		)
	}
	RecordAdmission(reason)
}

// RecordThrottle records an interval-guard throttle by identity namespace
// ("session" or "ip").
func RecordThrottle(namespace string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitThrottledName,
			1,
			map[string]string{"namespace": namespace},
		)
	}
}

// RecordProviderCall records one completion round-trip.
func RecordProviderCall(provider string, success bool, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	labels := map[string]string{"provider": provider, "status": status}

	_ = observability.TelemetrySystem.Counter(ProviderRequestsName, 1, labels)
	_ = observability.TelemetrySystem.Histogram(ProviderDurationName, duration, map[string]string{"provider": provider})
}

// RecordScheduleSize records the item count of a delivered timeline.
func RecordScheduleSize(items int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ScheduleItemsName, float64(items), nil)
	}
}

// RecordSchemaMismatch records a timeline that failed application-side
// validation but was delivered anyway.
func RecordSchemaMismatch() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(SchemaMismatchTotalName, 1, nil)
	}
}
