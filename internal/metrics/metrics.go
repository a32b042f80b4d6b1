package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FanoutJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamify",
		Name:      "fanout_jobs_total",
		Help:      "Upload fan-out jobs processed, by outcome.",
	}, []string{"outcome"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamify",
		Name:      "notifications_created_total",
		Help:      "Notifications stored, by type.",
	}, []string{"type"})

	RealtimeEmits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamify",
		Name:      "realtime_emits_total",
		Help:      "Realtime events emitted, by outcome.",
	}, []string{"outcome"})

	DashboardCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamify",
		Name:      "dashboard_cache_requests_total",
		Help:      "Dashboard cache lookups, by result.",
	}, []string{"result"})

	JanitorDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamify",
		Name:      "queue_janitor_deleted_total",
		Help:      "Task records trimmed by the queue janitor, by state.",
	}, []string{"state"})
)

// Outcome labels
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
	OutcomeNoop    = "noop"

	CacheHit  = "hit"
	CacheMiss = "miss"
)
