// Package metrics 定義服務對外暴露的 Prometheus 指標。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmate_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projectmate_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmate_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)

	// 協作房間
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projectmate_ws_connected_clients",
			Help: "Currently connected websocket clients",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmate_room_events_published_total",
			Help: "Events enqueued for delivery to room connections",
		},
		[]string{"event"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmate_room_events_dropped_total",
			Help: "Events dropped because a connection send queue was full",
		},
		[]string{"event"},
	)

	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmate_messages_posted_total",
			Help: "Total chat messages persisted",
		},
	)

	NotesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmate_notes_updates_total",
			Help: "Total shared notes updates persisted",
		},
	)

	FilesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmate_files_stored_total",
			Help: "Total uploaded files stored",
		},
	)

	MembershipDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmate_membership_denied_total",
			Help: "Room actions rejected by the membership check",
		},
		[]string{"action"},
	)
)
