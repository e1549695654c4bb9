package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/parquesmx/parques/internal/api/middleware"

// Metrics holds the OpenTelemetry instruments for the HTTP layer and the
// export pipeline.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter

	exportTotal    metric.Int64Counter
	exportDuration metric.Float64Histogram
	exportBytes    metric.Int64Histogram
}

// NewMetrics creates a Metrics instance with initialized instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	exportTotal, err := meter.Int64Counter(
		"exports.total",
		metric.WithDescription("Total number of export attempts"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, err
	}

	exportDuration, err := meter.Float64Histogram(
		"exports.duration",
		metric.WithDescription("Duration of export generation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	exportBytes, err := meter.Int64Histogram(
		"exports.size",
		metric.WithDescription("Size of generated export payloads in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		exportTotal:     exportTotal,
		exportDuration:  exportDuration,
		exportBytes:     exportBytes,
	}, nil
}

// Middleware records request count and duration for each request.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.status", strconv.Itoa(wrapped.statusCode)),
			)
			m.requestTotal.Add(r.Context(), 1, attrs)
			m.requestDuration.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}
}

// RecordExport records one export attempt.
func (m *Metrics) RecordExport(ctx context.Context, entity, format, status string, duration time.Duration, bytes int) {
	attrs := metric.WithAttributes(
		attribute.String("export.entity", entity),
		attribute.String("export.format", format),
		attribute.String("export.status", status),
	)
	m.exportTotal.Add(ctx, 1, attrs)
	m.exportDuration.Record(ctx, duration.Seconds(), attrs)
	if bytes > 0 {
		m.exportBytes.Record(ctx, int64(bytes), attrs)
	}
}
