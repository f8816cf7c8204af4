package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics counts payment reminder emails per tier and outcome.
type ReminderMetrics struct {
	sent   *prometheus.CounterVec
	failed *prometheus.CounterVec
}

// NewReminderMetrics registers the reminder counters on the provided registerer.
func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	if reg == nil {
		return &ReminderMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reminders_sent",
		Help: "Payment reminder emails sent.",
	}, []string{"tier"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reminders_failed",
		Help: "Payment reminder emails that failed to send.",
	}, []string{"tier"})
	reg.MustRegister(sent, failed)
	return &ReminderMetrics{sent: sent, failed: failed}
}

// IncSent increments the sent counter for the given tier.
func (r *ReminderMetrics) IncSent(tier string) {
	if r == nil || r.sent == nil {
		return
	}
	r.sent.WithLabelValues(normalizeLabel(tier)).Inc()
}

// IncFailed increments the failed counter for the given tier.
func (r *ReminderMetrics) IncFailed(tier string) {
	if r == nil || r.failed == nil {
		return
	}
	r.failed.WithLabelValues(normalizeLabel(tier)).Inc()
}
