// Package metrics 定义 prometheus 指标，通过 /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// 网关
	WsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "market_chat_ws_connections",
			Help: "Currently open websocket connections on this instance",
		},
	)

	WsEventsIn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_ws_events_in_total",
			Help: "Client events received",
		},
		[]string{"event"},
	)

	WsEventsOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_ws_events_out_total",
			Help: "Server events delivered to local connections",
		},
		[]string{"event"},
	)

	WsDroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_chat_ws_dropped_frames_total",
			Help: "Frames dropped because a connection send queue was full",
		},
	)

	BrokerPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_broker_publish_errors_total",
			Help: "Failed publishes to the event backplane",
		},
		[]string{"mode"},
	)

	// 业务
	MessagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_messages_persisted_total",
			Help: "Messages written to the store",
		},
		[]string{"kind"}, // "text" or "attachment"
	)
)
