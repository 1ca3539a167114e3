package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RouteSameCountry = "same_country"
	RouteCrossBorder = "cross_border"
	RouteFallback    = "on_behalf_of_fallback"
)

const (
	OutcomeCompleted      = "completed"
	OutcomeTransferFailed = "transfer_failed"
	OutcomeAlreadySettled = "already_settled"
	OutcomeNotFound       = "not_found"
	OutcomeError          = "error"
)

// PayoutMetrics exposes counters for payment routing and settlement.
type PayoutMetrics struct {
	intentsCreated  *prometheus.CounterVec
	intentsRejected *prometheus.CounterVec
	orphanedIntents prometheus.Counter
	settlements     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

// New registers the payout counters with registerer, or the default
// registerer when nil.
func New(registerer prometheus.Registerer) *PayoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &PayoutMetrics{
		intentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_intents_created_total",
			Help: "Payment intents accepted by the processor, by routing strategy.",
		}, []string{"route", "currency"}),
		intentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_intents_rejected_total",
			Help: "Payment intent requests rejected before or by the processor.",
		}, []string{"reason"}),
		orphanedIntents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payouts_orphaned_intents_total",
			Help: "Processor intents created without a local payment record.",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_settlements_total",
			Help: "Settlement attempts for succeeded payment intents, by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_webhook_events_total",
			Help: "Processor webhook deliveries, by event type and result.",
		}, []string{"type", "result"}),
	}

	registerer.MustRegister(
		m.intentsCreated,
		m.intentsRejected,
		m.orphanedIntents,
		m.settlements,
		m.webhookEvents,
	)
	return m
}

func (m *PayoutMetrics) IncIntentCreated(route, currency string) {
	if m == nil {
		return
	}
	m.intentsCreated.WithLabelValues(route, currency).Inc()
}

func (m *PayoutMetrics) IncIntentRejected(reason string) {
	if m == nil {
		return
	}
	m.intentsRejected.WithLabelValues(reason).Inc()
}

func (m *PayoutMetrics) IncOrphanedIntent() {
	if m == nil {
		return
	}
	m.orphanedIntents.Inc()
}

func (m *PayoutMetrics) IncSettlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *PayoutMetrics) IncWebhookEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, result).Inc()
}
