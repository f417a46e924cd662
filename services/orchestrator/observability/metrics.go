// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the HTTP service.
//
// # Description
//
// Metrics cover the chat pipeline (request counts, durations, retrieved
// chunk counts), document ingestion and the masking endpoint. Exposed
// via /metrics; use with Prometheus + Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "docassist"

// Metrics holds all Prometheus metrics for the service.
//
// # Fields
//
//   - RequestsTotal: Counter of API requests by endpoint and status.
//   - RequestDurationSeconds: Histogram of request duration by endpoint.
//   - RetrievedChunks: Histogram of chunk counts surviving the score
//     threshold per chat request.
//   - ActiveStreams: Gauge of open SSE connections.
//   - KeepAlivesTotal: Counter of SSE keepalive pings.
//   - DocumentsIndexedTotal: Counter of ingested documents by status.
//   - ChunksIndexedTotal: Counter of chunks written to the index.
//   - MaskRequestsTotal: Counter of masking requests.
type Metrics struct {
	// RequestsTotal counts API requests.
	// Labels: endpoint (chat, chat_stream, documents, mask), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end request duration.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// RetrievedChunks measures how many chunks ground each answer.
	RetrievedChunks prometheus.Histogram

	// ActiveStreams tracks open SSE connections.
	ActiveStreams prometheus.Gauge

	// KeepAlivesTotal counts keepalive pings sent on SSE streams.
	KeepAlivesTotal prometheus.Counter

	// DocumentsIndexedTotal counts ingested documents.
	// Labels: status (success, error)
	DocumentsIndexedTotal *prometheus.CounterVec

	// ChunksIndexedTotal counts chunks written to the vector index.
	ChunksIndexedTotal prometheus.Counter

	// MaskRequestsTotal counts masking requests.
	MaskRequestsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *Metrics

// InitMetrics creates and registers all metrics with the default
// registry. Call once at startup; a second call panics on duplicate
// registration.
func InitMetrics() *Metrics {
	DefaultMetrics = &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"endpoint"},
		),

		RetrievedChunks: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "retrieved_chunks",
				Help:      "Chunks above the score threshold per chat request",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),

		ActiveStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_streams",
				Help:      "Currently open SSE connections",
			},
		),

		KeepAlivesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "keepalives_total",
				Help:      "Keepalive pings sent on SSE streams",
			},
		),

		DocumentsIndexedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "documents_indexed_total",
				Help:      "Ingested documents by status",
			},
			[]string{"status"},
		),

		ChunksIndexedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "chunks_indexed_total",
				Help:      "Chunks written to the vector index",
			},
		),

		MaskRequestsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "mask_requests_total",
				Help:      "Masking requests served",
			},
		),
	}
	return DefaultMetrics
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint labels a metrics series with the API surface it came from.
type Endpoint string

const (
	EndpointChat       Endpoint = "chat"
	EndpointChatStream Endpoint = "chat_stream"
	EndpointDocuments  Endpoint = "documents"
	EndpointMask       Endpoint = "mask"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(endpoint Endpoint, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
	m.RequestDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordRetrievedChunks records the grounding set size of one answer.
func (m *Metrics) RecordRetrievedChunks(count int) {
	m.RetrievedChunks.Observe(float64(count))
}

// StreamStarted increments the active streams gauge.
func (m *Metrics) StreamStarted() {
	m.ActiveStreams.Inc()
}

// StreamEnded decrements the active streams gauge.
func (m *Metrics) StreamEnded() {
	m.ActiveStreams.Dec()
}

// RecordKeepAlive increments the keepalive counter.
func (m *Metrics) RecordKeepAlive() {
	m.KeepAlivesTotal.Inc()
}

// RecordIndexedDocument records one ingestion outcome.
func (m *Metrics) RecordIndexedDocument(success bool, chunks int) {
	status := "success"
	if !success {
		status = "error"
	}
	m.DocumentsIndexedTotal.WithLabelValues(status).Inc()
	if chunks > 0 {
		m.ChunksIndexedTotal.Add(float64(chunks))
	}
}

// RecordMaskRequest increments the masking request counter.
func (m *Metrics) RecordMaskRequest() {
	m.MaskRequestsTotal.Inc()
}
