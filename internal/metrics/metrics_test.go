package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPayoutMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncIntentCreated(RouteCrossBorder, "eur")
	m.IncIntentCreated(RouteCrossBorder, "eur")
	m.IncOrphanedIntent()
	m.IncSettlement(OutcomeAlreadySettled)
	m.IncWebhookEvent("payment_intent.succeeded", "processed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.intentsCreated.WithLabelValues(RouteCrossBorder, "eur")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orphanedIntents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues(OutcomeAlreadySettled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("payment_intent.succeeded", "processed")))
}

func TestPayoutMetrics_NilSafe(t *testing.T) {
	var m *PayoutMetrics
	assert.NotPanics(t, func() {
		m.IncIntentCreated(RouteSameCountry, "usd")
		m.IncIntentRejected("currency_unsupported")
		m.IncOrphanedIntent()
		m.IncSettlement(OutcomeCompleted)
		m.IncWebhookEvent("charge.refunded", "ignored")
	})
}
