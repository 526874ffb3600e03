package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordCounters(t *testing.T) {
	RecordsLogged.WithLabelValues("add").Inc()
	ValueLogged.Add(12.5)

	names := gatheredNames(t)
	for _, name := range []string{"lifequest_records_total", "lifequest_value_logged_total"} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestExperienceCounters(t *testing.T) {
	before := counterValue(t, BonusAwarded.WithLabelValues("goal_bonus"))
	BonusAwarded.WithLabelValues("goal_bonus").Add(30)
	if got := counterValue(t, BonusAwarded.WithLabelValues("goal_bonus")); got-before != 30 {
		t.Errorf("goal_bonus delta = %v, want 30", got-before)
	}

	PenaltiesApplied.WithLabelValues("pact").Add(20)
	LevelUps.WithLabelValues("Novice").Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"lifequest_bonus_xp_awarded_total",
		"lifequest_penalty_xp_total",
		"lifequest_level_ups_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestEconomyCounters(t *testing.T) {
	CrystalsGranted.Inc()
	CrystalsConsumed.Inc()
	GoalEvaluations.WithLabelValues("met").Inc()
	SkillUnlocks.WithLabelValues("unlocked").Inc()
	BreachesResolved.WithLabelValues("frozen").Inc()
	ActiveUsers.Set(3)

	var m dto.Metric
	if err := ActiveUsers.Write(&m); err != nil || m.GetGauge().GetValue() != 3 {
		t.Errorf("ActiveUsers = %v, %v", m.GetGauge().GetValue(), err)
	}
	names := gatheredNames(t)
	for _, name := range []string{
		"lifequest_freeze_crystals_granted_total",
		"lifequest_freeze_crystals_consumed_total",
		"lifequest_goal_evaluations_total",
		"lifequest_skill_unlocks_total",
		"lifequest_breaches_resolved_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
