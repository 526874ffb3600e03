package engagement

import (
	"github.com/levelup-labs/lifequest/internal/domain"
)

// CheckAchievements returns the achievements whose predicate holds for stats
// and whose ID is not in unlocked. Already-unlocked achievements are skipped,
// so feeding the result back into the unlocked set makes this idempotent.
func CheckAchievements(stats domain.UserStats, unlocked []string) []domain.AchievementDef {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}

	var out []domain.AchievementDef
	for _, def := range AllAchievements() {
		if have[def.ID] {
			continue
		}
		if def.Predicate != nil && def.Predicate(stats) {
			out = append(out, def)
		}
	}
	return out
}

// FindAchievement looks up a catalog entry by ID.
func FindAchievement(id string) (domain.AchievementDef, bool) {
	for _, def := range AllAchievements() {
		if def.ID == id {
			return def, true
		}
	}
	return domain.AchievementDef{}, false
}

// ─── Achievement Catalog ────────────────────────────────────────────────────
// 21 achievements across 5 categories, each a stat-based predicate.

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		// ── Getting Started ────────────────────────────────────────────
		{
			ID: "first_record", Name: "First Step", Category: domain.CatGettingStarted,
			Icon: "🎯", RewardXP: 25,
			Predicate: func(s domain.UserStats) bool { return s.TotalRecords > 0 },
		},
		{
			ID: "first_task", Name: "Pathfinder", Category: domain.CatGettingStarted,
			Icon: "🧭", RewardXP: 25,
			Predicate: func(s domain.UserStats) bool { return s.TaskCount > 0 },
		},
		{
			ID: "task_trio", Name: "Well Rounded", Category: domain.CatGettingStarted,
			Icon: "🎲", RewardXP: 50,
			Predicate: func(s domain.UserStats) bool { return s.TaskCount >= 3 },
		},
		{
			ID: "first_friend", Name: "Party Up", Category: domain.CatGettingStarted,
			Icon: "🤝", RewardXP: 50,
			Predicate: func(s domain.UserStats) bool { return s.Friends >= 1 },
		},

		// ── Streaks ────────────────────────────────────────────────────
		{
			ID: "streak_7", Name: "Week Warrior", Category: domain.CatStreaks,
			Icon: "🔥", RewardXP: 100,
			Predicate: func(s domain.UserStats) bool { return s.BestStreak >= 7 },
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Category: domain.CatStreaks,
			Icon: "💪", RewardXP: 500,
			Predicate: func(s domain.UserStats) bool { return s.BestStreak >= 30 },
		},
		{
			ID: "streak_100", Name: "Centurion", Category: domain.CatStreaks,
			Icon: "🏛️", RewardXP: 2000,
			Predicate: func(s domain.UserStats) bool { return s.BestStreak >= 100 },
		},
		{
			ID: "streak_longest_14", Name: "Fortnight Force", Category: domain.CatStreaks,
			Icon: "📅", RewardXP: 150,
			Predicate: func(s domain.UserStats) bool { return s.LongestStreak >= 14 },
		},

		// ── Volume ─────────────────────────────────────────────────────
		{
			ID: "records_100", Name: "Logbook", Category: domain.CatVolume,
			Icon: "📒", RewardXP: 150,
			Predicate: func(s domain.UserStats) bool { return s.TotalRecords >= 100 },
		},
		{
			ID: "records_1000", Name: "Archivist", Category: domain.CatVolume,
			Icon: "🗄️", RewardXP: 1000,
			Predicate: func(s domain.UserStats) bool { return s.TotalRecords >= 1000 },
		},
		{
			ID: "value_1000", Name: "Grinder", Category: domain.CatVolume,
			Icon: "⚙️", RewardXP: 100,
			Predicate: func(s domain.UserStats) bool { return s.TotalValue >= 1000 },
		},
		{
			ID: "value_10000", Name: "Juggernaut", Category: domain.CatVolume,
			Icon: "🚂", RewardXP: 750,
			Predicate: func(s domain.UserStats) bool { return s.TotalValue >= 10000 },
		},

		// ── Goals ──────────────────────────────────────────────────────
		{
			ID: "goal_first", Name: "On Target", Category: domain.CatGoals,
			Icon: "🏹", RewardXP: 50,
			Predicate: func(s domain.UserStats) bool { return s.GoalsMet >= 1 },
		},
		{
			ID: "goal_25", Name: "Sharpshooter", Category: domain.CatGoals,
			Icon: "🎖️", RewardXP: 400,
			Predicate: func(s domain.UserStats) bool { return s.GoalsMet >= 25 },
		},
		{
			ID: "high_goal_first", Name: "Summit", Category: domain.CatGoals,
			Icon: "🏔️", RewardXP: 300,
			Predicate: func(s domain.UserStats) bool { return s.HighGoalsDone >= 1 },
		},
		{
			ID: "pact_10", Name: "Oathkeeper", Category: domain.CatGoals,
			Icon: "📜", RewardXP: 200,
			Predicate: func(s domain.UserStats) bool { return s.PactsHonored >= 10 },
		},

		// ── Mastery ────────────────────────────────────────────────────
		{
			ID: "skill_first", Name: "Stargazer", Category: domain.CatMastery,
			Icon: "✨", RewardXP: 50,
			Predicate: func(s domain.UserStats) bool { return s.SkillsUnlocked >= 1 },
		},
		{
			ID: "skill_10", Name: "Astronomer", Category: domain.CatMastery,
			Icon: "🔭", RewardXP: 500,
			Predicate: func(s domain.UserStats) bool { return s.SkillsUnlocked >= 10 },
		},
		{
			ID: "level_10", Name: "Rising Star", Category: domain.CatMastery,
			Icon: "🌅", RewardXP: 200,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 10 },
		},
		{
			ID: "level_50", Name: "Veteran", Category: domain.CatMastery,
			Icon: "🎖️", RewardXP: 2000,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 50 },
		},
		{
			ID: "level_100", Name: "Mythmaker", Category: domain.CatMastery,
			Icon: "🌌", RewardXP: 10000,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 100 },
		},
	}
}
