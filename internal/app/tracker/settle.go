package tracker

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// Outcome reports the side effects a command triggered.
type Outcome struct {
	LevelBefore     int                     `json:"level_before"`
	LevelAfter      int                     `json:"level_after"`
	TiersEntered    []domain.Tier           `json:"tiers_entered,omitempty"`
	Milestones      []MilestoneAward        `json:"milestones,omitempty"`
	Achievements    []domain.AchievementDef `json:"achievements,omitempty"`
	BonusAwarded    float64                 `json:"bonus_awarded"`
	CrystalsGranted int                     `json:"crystals_granted"`
}

// LeveledUp reports whether the command raised the level.
func (o *Outcome) LeveledUp() bool { return o != nil && o.LevelAfter > o.LevelBefore }

// MilestoneAward is one streak milestone that paid a freeze crystal.
type MilestoneAward struct {
	TaskID string `json:"task_id"`
	Days   int    `json:"days"`
}

// tierKey is the UnlockedAchievements entry guarding a tier's entry bonus.
func tierKey(index int) string { return "tier:" + strconv.Itoa(index) }

// begin snapshots the level before a mutation.
func (s *Service) begin(tx *txn) *Outcome {
	return &Outcome{LevelBefore: s.levels.LevelForXP(tx.totalExperience())}
}

// settle pays every one-time reward the mutation unlocked: streak milestone
// crystals, tier entry bonuses and achievements. Rewards can raise the level
// again, so tiers and achievements are re-checked until nothing new unlocks.
func (s *Service) settle(tx *txn, o *Outcome) *Outcome {
	s.awardMilestones(tx, o)

	for {
		level := s.levels.LevelForXP(tx.totalExperience())
		progressed := false

		for _, tier := range s.levels.TiersBetween(1, level) {
			key := tierKey(tier.Index)
			if tx.hasAchievement(key) {
				continue
			}
			tx.unlockAchievement(key)
			tx.addBonus(domain.XPTierBonus, tier.EntryBonus, key)
			o.BonusAwarded += tier.EntryBonus
			o.TiersEntered = append(o.TiersEntered, tier)
			progressed = true
		}

		if s.rules.AchievementRewards {
			stats := s.stats(tx.state, tx.today)
			for _, def := range engagement.CheckAchievements(stats, tx.state.UnlockedAchievements) {
				tx.unlockAchievement(def.ID)
				tx.addBonus(domain.XPAchievement, def.RewardXP, def.ID)
				o.BonusAwarded += def.RewardXP
				o.Achievements = append(o.Achievements, def)
				progressed = true
			}
		}

		if !progressed {
			break
		}
	}

	o.LevelAfter = s.levels.LevelForXP(tx.totalExperience())
	if o.LeveledUp() {
		tier := s.levels.TierForLevel(o.LevelAfter)
		metrics.LevelUps.WithLabelValues(tier.Name).Add(float64(o.LevelAfter - o.LevelBefore))
		s.log.Info("level up",
			zap.Int("from", o.LevelBefore),
			zap.Int("to", o.LevelAfter),
			zap.String("tier", tier.Name),
		)
	}
	return o
}

// awardMilestones grants one crystal per newly reached streak milestone.
func (s *Service) awardMilestones(tx *txn, o *Outcome) {
	for i := range tx.state.Tasks {
		task := &tx.state.Tasks[i]
		streak := engagement.CurrentStreak(tx.state.Records, task, tx.today)
		awarded := tx.state.AwardedStreakMilestones[task.ID]
		fresh := engagement.NewMilestones(streak, s.rules.StreakMilestones, awarded)
		if len(fresh) == 0 {
			continue
		}
		tx.state.AwardedStreakMilestones[task.ID] = append(awarded, fresh...)
		tx.state.FreezeCrystals += len(fresh)
		tx.touchMilestones()
		tx.touchCrystals()
		for _, m := range fresh {
			o.Milestones = append(o.Milestones, MilestoneAward{TaskID: task.ID, Days: m})
		}
		o.CrystalsGranted += len(fresh)
		metrics.CrystalsGranted.Add(float64(len(fresh)))
	}
}

// stats snapshots the document for achievement predicates.
func (s *Service) stats(state *domain.UserState, today domain.Date) domain.UserStats {
	st := domain.UserStats{
		TotalRecords:   len(state.Records),
		TotalValue:     engagement.TotalValue(state.Records),
		TaskCount:      len(state.Tasks),
		SkillsUnlocked: len(state.UnlockedSkills),
		Friends:        len(state.Friends),
		Level:          s.levels.LevelForXP(engagement.TotalExperience(state.Records, state.BonusPoints)),
	}

	st.BestStreak = engagement.CurrentStreak(state.Records, nil, today)
	st.LongestStreak = engagement.LongestStreak(state.Records, nil)
	for i := range state.Tasks {
		task := &state.Tasks[i]
		if c := engagement.CurrentStreak(state.Records, task, today); c > st.BestStreak {
			st.BestStreak = c
		}
		if l := engagement.LongestStreak(state.Records, task); l > st.LongestStreak {
			st.LongestStreak = l
		}
	}

	for _, periods := range state.SettledGoalPeriods {
		for _, p := range periods {
			if p.Met {
				st.GoalsMet++
			}
		}
	}
	for _, item := range state.TodoItems {
		if item.Completed {
			st.PactsHonored++
		}
	}
	for _, g := range state.HighGoals {
		if engagement.EvaluateHighGoal(g, state.Records, today).Status == engagement.HighGoalCompleted {
			st.HighGoalsDone++
		}
	}
	return st
}
