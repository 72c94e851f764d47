package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "tagbot"

var (
	TagHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "tag_hits_total",
		Help:      "Total number of tag rule matches",
	}, []string{"tag"})

	ReactionsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "reactions_delivered_total",
		Help:      "Total number of reactions applied",
	}, []string{"outcome"})

	ReactionsAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "reactions_abandoned_total",
		Help:      "Total number of queued reactions dropped at the attempt ceiling",
	})

	ReactionQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "reaction_queue_depth",
		Help:      "Number of reactions currently waiting in the retry queue",
	})

	WebhookSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "webhook_sends_total",
		Help:      "Total number of outbound webhook notifications",
	}, []string{"status"})
)

func IncTagHit(tag string) {
	TagHits.WithLabelValues(tag).Inc()
}

func IncReactionDelivered(outcome string) {
	ReactionsDelivered.WithLabelValues(outcome).Inc()
}

func IncReactionAbandoned() {
	ReactionsAbandoned.Inc()
}

func SetReactionQueueDepth(depth float64) {
	ReactionQueueDepth.Set(depth)
}

func IncWebhookSend(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	WebhookSends.WithLabelValues(status).Inc()
}
