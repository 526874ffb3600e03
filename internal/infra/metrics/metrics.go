// Package metrics provides Prometheus metrics for LifeQuest.
// Counters and gauges for records, experience, streak economy, goals,
// constellations, pacts and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Records ────────────────────────────────────────────────────────────────

// RecordsLogged tracks record writes by operation (add, update, delete).
var RecordsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "records_total",
	Help:      "Record mutations by operation.",
}, []string{"op"})

// ValueLogged tracks the total value logged across all users.
var ValueLogged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "value_logged_total",
	Help:      "Sum of logged record values.",
})

// ─── Experience ─────────────────────────────────────────────────────────────

// BonusAwarded tracks bonus experience granted, by source.
var BonusAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "bonus_xp_awarded_total",
	Help:      "Bonus experience granted by source.",
}, []string{"source"})

// PenaltiesApplied tracks experience deducted, by breach kind.
var PenaltiesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "penalty_xp_total",
	Help:      "Experience deducted by penalties.",
}, []string{"kind"})

// LevelUps tracks level increases by the tier reached.
var LevelUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "level_ups_total",
	Help:      "Level increases by resulting tier.",
}, []string{"tier"})

// ─── Streaks & Crystals ─────────────────────────────────────────────────────

// CrystalsGranted tracks freeze crystals earned from streak milestones.
var CrystalsGranted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "freeze_crystals_granted_total",
	Help:      "Freeze crystals granted by streak milestones.",
})

// CrystalsConsumed tracks freeze crystals spent on breaches.
var CrystalsConsumed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "freeze_crystals_consumed_total",
	Help:      "Freeze crystals spent on breaches.",
})

// ─── Goals & Constellations ─────────────────────────────────────────────────

// GoalEvaluations tracks settled goal periods by outcome (met, missed, duplicate).
var GoalEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "goal_evaluations_total",
	Help:      "Goal period evaluations by outcome.",
}, []string{"outcome"})

// SkillUnlocks tracks constellation unlock attempts by result.
var SkillUnlocks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "skill_unlocks_total",
	Help:      "Constellation unlock attempts by result.",
}, []string{"result"})

// ─── Pacts ──────────────────────────────────────────────────────────────────

// BreachesResolved tracks breach resolutions by state.
var BreachesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "breaches_resolved_total",
	Help:      "Breach resolutions by resulting state.",
}, []string{"state"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests tracks API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lifequest",
	Name:      "http_requests_total",
	Help:      "API requests by route and status.",
}, []string{"route", "status"})

// HTTPLatency tracks API request duration in seconds.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lifequest",
	Name:      "http_request_duration_seconds",
	Help:      "API request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// ActiveUsers tracks users with a stored document.
var ActiveUsers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lifequest",
	Name:      "users",
	Help:      "Users with a stored document.",
})
