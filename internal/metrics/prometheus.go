// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the points economy bot.
var (
	// Counters.
	DailyClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_claims_total",
			Help: "Total number of daily claim attempts",
		},
		[]string{"guild", "status"}, // status: granted, cooling_down
	)

	WagersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wagers_total",
			Help: "Total number of resolved wagers",
		},
		[]string{"guild", "outcome"}, // outcome: won, lost
	)

	WagerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_rejections_total",
			Help: "Total number of wagers rejected before any balance mutation",
		},
		[]string{"guild", "reason"},
	)

	TriggersFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triggers_fired_total",
			Help: "Total number of message triggers fired",
		},
		[]string{"guild", "category"},
	)

	MilestonesUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestones_unlocked_total",
			Help: "Total number of milestone roles unlocked",
		},
		[]string{"guild"},
	)

	// Gauges.
	PointsWageredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_wagered_total",
			Help: "Total points staked in resolved wagers",
		},
		[]string{"guild"},
	)

	TopBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "top_balance",
			Help: "Highest account balance per guild, refreshed by the sweep job",
		},
		[]string{"guild"},
	)

	// Scheduler metrics.
	SweepJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_jobs_run_total",
			Help: "Total milestone sweep job executions",
		},
		[]string{"status"},
	)

	SweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Time taken to execute the milestone sweep job",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

// RecordDailyClaim records a daily claim attempt.
func RecordDailyClaim(guild, status string) {
	DailyClaimsTotal.WithLabelValues(guild, status).Inc()
}

// RecordWager records a resolved wager and the points staked.
func RecordWager(guild, outcome string, wager int64) {
	WagersTotal.WithLabelValues(guild, outcome).Inc()
	PointsWageredTotal.WithLabelValues(guild).Add(float64(wager))
}

// RecordWagerRejected records a wager rejected at validation.
func RecordWagerRejected(guild, reason string) {
	WagerRejectionsTotal.WithLabelValues(guild, reason).Inc()
}

// RecordTriggerFired records a message trigger firing.
func RecordTriggerFired(guild, category string) {
	TriggersFiredTotal.WithLabelValues(guild, category).Inc()
}

// RecordMilestoneUnlocked records a milestone role unlock.
func RecordMilestoneUnlocked(guild string) {
	MilestonesUnlockedTotal.WithLabelValues(guild).Inc()
}

// SetTopBalance sets the highest balance gauge for a guild.
func SetTopBalance(guild string, balance int64) {
	TopBalance.WithLabelValues(guild).Set(float64(balance))
}

// RecordSweepJobRun records a milestone sweep job execution.
func RecordSweepJobRun(status string) {
	SweepJobsRunTotal.WithLabelValues(status).Inc()
}

// ObserveSweepDuration records how long a sweep job took in seconds.
func ObserveSweepDuration(seconds float64) {
	SweepDurationSeconds.Observe(seconds)
}
