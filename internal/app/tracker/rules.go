package tracker

import "github.com/levelup-labs/lifequest/internal/app/engagement"

// Rules are the tunable parts of the progression economy.
type Rules struct {
	StreakMilestones   []int   `toml:"streak_milestones"`
	DarkPenaltyPerDay  float64 `toml:"dark_penalty_per_day"`
	DarkPenaltyMinimum float64 `toml:"dark_penalty_minimum"`
	DarkLookbackDays   int     `toml:"dark_lookback_days"`
	DeclineFraction    float64 `toml:"decline_fraction"`
	DareWindowDays     int     `toml:"dare_window_days"`
	ConsistencyWindow  int     `toml:"consistency_window_days"`
	AchievementRewards bool    `toml:"achievement_rewards"`
}

// DefaultRules returns the standard economy.
func DefaultRules() Rules {
	br := engagement.DefaultBreachRules()
	return Rules{
		StreakMilestones:   append([]int(nil), engagement.DefaultStreakMilestones...),
		DarkPenaltyPerDay:  br.DarkPenaltyPerDay,
		DarkPenaltyMinimum: br.DarkPenaltyMinimum,
		DarkLookbackDays:   br.DarkLookbackDays,
		DeclineFraction:    br.DeclineFraction,
		DareWindowDays:     br.DareWindowDays,
		ConsistencyWindow:  30,
		AchievementRewards: true,
	}
}

// breachRules projects the pact settings.
func (r Rules) breachRules() engagement.BreachRules {
	return engagement.BreachRules{
		DeclineFraction:    r.DeclineFraction,
		DareWindowDays:     r.DareWindowDays,
		DarkPenaltyPerDay:  r.DarkPenaltyPerDay,
		DarkPenaltyMinimum: r.DarkPenaltyMinimum,
		DarkLookbackDays:   r.DarkLookbackDays,
	}
}
