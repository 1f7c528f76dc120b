package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the portal's metrics.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Submission model
	SubmissionValidations CounterVec
	SubmissionEntities    CounterVec

	// Job runner
	JobsSubmitted     CounterVec
	SchedulerDuration HistogramVec

	// History
	HistoryEntries   GaugeVec
	ArchiveDownloads CounterVec
}

var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSchedulerDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60}
)

// NewAppMetrics registers every portal metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	m.SubmissionValidations = collector.RegisterCounter("submission_validations_total", "Submission validations by outcome", "result")
	m.SubmissionEntities = collector.RegisterCounter("submission_entities_total", "Entities in rendered submissions", "kind")

	m.JobsSubmitted = collector.RegisterCounter("jobs_submitted_total", "Job submissions by outcome", "status")
	m.SchedulerDuration = collector.RegisterHistogram("scheduler_duration_seconds", "Scheduler command duration", DefaultSchedulerDurationBuckets)

	m.HistoryEntries = collector.RegisterGauge("history_entries", "Completed jobs found by the last history scan")
	m.ArchiveDownloads = collector.RegisterCounter("archive_downloads_total", "Result archive downloads by source", "source")

	return m
}

// NewNoopAppMetrics returns metrics that record nothing.
func NewNoopAppMetrics() *AppMetrics {
	return NewAppMetrics(NewNoopCollector())
}

// RecordHTTPRequest counts one request and observes its duration.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordValidation counts one validation; code is the failure code or "ok".
func RecordValidation(m *AppMetrics, code string) {
	if code == "" {
		code = "ok"
	}
	m.SubmissionValidations.WithLabelValues(code).Inc()
}

// RecordEntity counts one rendered entity of the given kind.
func RecordEntity(m *AppMetrics, kind string) {
	m.SubmissionEntities.WithLabelValues(kind).Inc()
}

// RecordJobSubmission counts a submission outcome: submitted, rejected,
// locked or failed.
func RecordJobSubmission(m *AppMetrics, status string) {
	m.JobsSubmitted.WithLabelValues(status).Inc()
}

// RecordArchiveDownload counts a download served from "local" or "minio".
func RecordArchiveDownload(m *AppMetrics, source string) {
	m.ArchiveDownloads.WithLabelValues(source).Inc()
}
