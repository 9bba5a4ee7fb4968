package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters mirror the server-side naming so dashboards line up across both
// ends of the wire.
var (
	receivedMessagesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wander_client_received_messages_total",
		Help: "Inbound server messages handled, by action.",
	}, []string{"action"})

	receivedBytesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_client_received_bytes_total",
		Help: "Total bytes received from the server.",
	})

	sentMessagesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wander_client_sent_messages_total",
		Help: "Outbound commands sent, by action.",
	}, []string{"action"})

	sentBytesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_client_sent_bytes_total",
		Help: "Total bytes sent to the server.",
	})

	discardedMessagesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_client_discarded_messages_total",
		Help: "Inbound messages dropped as malformed or unknown.",
	})

	frameDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_client_avatar_decode_failures_total",
		Help: "Avatar frame payloads that failed to decode.",
	})

	framesDecodedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wander_client_avatar_frames_decoded_total",
		Help: "Avatar frames decoded and installed in the cache.",
	})
)
