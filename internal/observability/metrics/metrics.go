package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for scoring, missions and outreach.
type LeadMetrics struct {
	analysesTotal    prometheus.Counter
	missionsTotal    *prometheus.CounterVec
	dispatchedTotal  *prometheus.CounterVec
	followupsTotal   *prometheus.CounterVec
	llmCallsTotal    *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	dispatchDuration prometheus.Histogram
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		analysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "scoring",
			Name:      "analyses_total",
			Help:      "Total lead analyses computed",
		}),
		missionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "missions",
			Name:      "generated_total",
			Help:      "Total missions generated",
		}, []string{"type"}),
		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "missions",
			Name:      "dispatched_total",
			Help:      "Missions handled by the dispatcher",
		}, []string{"type", "status"}),
		followupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "followup",
			Name:      "emails_total",
			Help:      "Follow-up emails by outcome",
		}, []string{"status"}),
		llmCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "LLM calls by operation and outcome",
		}, []string{"operation", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadpilot",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Latency of LLM calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadpilot",
			Subsystem: "missions",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of one dispatcher pass",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.analysesTotal, m.missionsTotal, m.dispatchedTotal, m.followupsTotal,
		m.llmCallsTotal, m.llmLatency, m.dispatchDuration)
	return m
}

func (m *LeadMetrics) ObserveAnalyses(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.analysesTotal.Add(float64(n))
}

func (m *LeadMetrics) ObserveMission(missionType string) {
	if m == nil {
		return
	}
	m.missionsTotal.WithLabelValues(missionType).Inc()
}

// ObserveDispatch records a dispatcher outcome: sent, skipped, or failed.
func (m *LeadMetrics) ObserveDispatch(missionType, status string) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(missionType, status).Inc()
}

func (m *LeadMetrics) ObserveFollowup(status string) {
	if m == nil {
		return
	}
	m.followupsTotal.WithLabelValues(status).Inc()
}

func (m *LeadMetrics) ObserveLLM(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmCallsTotal.WithLabelValues(operation, status).Inc()
	m.llmLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *LeadMetrics) ObserveDispatchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.dispatchDuration.Observe(seconds)
}
