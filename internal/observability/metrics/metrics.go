package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat relay.
type ChatMetrics struct {
	repliesTotal       *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	notificationsTotal *prometheus.CounterVec
}

// NewChatMetrics registers the chat collectors on reg, or on the default
// registerer when reg is nil.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult_chat",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by source (rule, fallback, closed) and intent",
		}, []string{"source", "intent"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "consult_chat",
			Subsystem: "llm",
			Name:      "request_seconds",
			Help:      "Latency of generative API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult_chat",
			Subsystem: "notify",
			Name:      "new_conversation_total",
			Help:      "New-conversation notification decisions",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.repliesTotal, m.llmLatency, m.notificationsTotal)
	return m
}

func (m *ChatMetrics) ObserveReply(source, intent string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(source, intent).Inc()
}

func (m *ChatMetrics) ObserveLLM(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *ChatMetrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(outcome).Inc()
}
