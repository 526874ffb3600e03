package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// ─── Recurring Goals ────────────────────────────────────────────────────────

// EvaluateGoal settles the task's last completed goal period. A period is
// settled at most once; later calls report AlreadyEvaluated and award nothing.
// It returns nil when the task has no goal.
func (s *Service) EvaluateGoal(ctx context.Context, userID, taskID string) (*engagement.GoalEvaluation, error) {
	var ev *engagement.GoalEvaluation
	err := s.withUser(ctx, userID, func(tx *txn) error {
		task, ok := tx.state.TaskByID(taskID)
		if !ok {
			return domain.ErrTaskNotFound
		}
		o := s.begin(tx)
		ev = s.settleGoal(tx, *task)
		if ev != nil && !ev.AlreadyEvaluated {
			s.settle(tx, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// EvaluateAllGoals settles every task with a goal in one write.
func (s *Service) EvaluateAllGoals(ctx context.Context, userID string) ([]engagement.GoalEvaluation, error) {
	var out []engagement.GoalEvaluation
	err := s.withUser(ctx, userID, func(tx *txn) error {
		o := s.begin(tx)
		fresh := false
		for _, task := range tx.state.Tasks {
			if ev := s.settleGoal(tx, task); ev != nil {
				out = append(out, *ev)
				fresh = fresh || !ev.AlreadyEvaluated
			}
		}
		if fresh {
			s.settle(tx, o)
		}
		return nil
	})
	return out, err
}

// settleGoal evaluates one task and records the settlement.
func (s *Service) settleGoal(tx *txn, task domain.TaskDefinition) *engagement.GoalEvaluation {
	settled := tx.state.SettledGoalPeriods[task.ID]
	ev := engagement.EvaluateLastCompletedPeriod(task, tx.state.Records, tx.today, settled)
	if ev == nil {
		return nil
	}
	if ev.AlreadyEvaluated {
		metrics.GoalEvaluations.WithLabelValues("duplicate").Inc()
		return ev
	}

	tx.state.SettledGoalPeriods[task.ID] = append(settled, ev.Settlement())
	tx.touchSettled()
	if ev.MetGoal {
		tx.addBonus(domain.XPGoalBonus, ev.BonusAwarded, task.ID+"@"+ev.PeriodKey)
		metrics.GoalEvaluations.WithLabelValues("met").Inc()
	} else {
		metrics.GoalEvaluations.WithLabelValues("missed").Inc()
	}
	s.log.Info("goal settled",
		zap.String("task", task.ID),
		zap.String("period", ev.PeriodKey),
		zap.Bool("met", ev.MetGoal),
		zap.Float64("bonus", ev.BonusAwarded),
	)
	return ev
}

// GoalProgress returns the live state of every task's current goal period.
func (s *Service) GoalProgress(ctx context.Context, userID string) ([]engagement.GoalProgress, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := make([]engagement.GoalProgress, 0, len(state.Tasks))
	for _, task := range state.Tasks {
		if p := engagement.CurrentGoalProgress(task, state.Records, today); p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ─── High Goals ─────────────────────────────────────────────────────────────

// HighGoalInput is the editable part of a HighGoal.
type HighGoalInput struct {
	Name        string      `json:"name"`
	TaskID      string      `json:"task_id"`
	TargetValue float64     `json:"target_value"`
	StartDate   domain.Date `json:"start_date"`
	EndDate     domain.Date `json:"end_date"`
}

func (s *Service) validateHighGoal(in *HighGoalInput, state *domain.UserState) error {
	in.Name = s.clean(in.Name)
	if in.Name == "" {
		return domain.Invalid("name", "must not be empty")
	}
	if len(in.Name) > maxNameLen {
		return domain.Invalid("name", "too long")
	}
	if _, ok := state.TaskByID(in.TaskID); !ok {
		return domain.Invalid("task_id", "unknown task "+in.TaskID)
	}
	if !finite(in.TargetValue) || in.TargetValue <= 0 {
		return domain.Invalid("target_value", "must be positive")
	}
	if in.EndDate < in.StartDate {
		return domain.Invalid("end_date", "must not be before start_date")
	}
	return nil
}

// CreateHighGoal adds a fixed-window goal.
func (s *Service) CreateHighGoal(ctx context.Context, userID string, in HighGoalInput) (domain.HighGoal, error) {
	var goal domain.HighGoal
	err := s.withUser(ctx, userID, func(tx *txn) error {
		if err := s.validateHighGoal(&in, tx.state); err != nil {
			return err
		}
		o := s.begin(tx)
		goal = domain.HighGoal{
			ID:          s.newID(),
			Name:        in.Name,
			TaskID:      in.TaskID,
			TargetValue: in.TargetValue,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
		}
		tx.touchHighGoals()
		tx.state.HighGoals = append(tx.state.HighGoals, goal)
		s.settle(tx, o)
		return nil
	})
	return goal, err
}

// UpdateHighGoal replaces a HighGoal's fields.
func (s *Service) UpdateHighGoal(ctx context.Context, userID, goalID string, in HighGoalInput) (domain.HighGoal, error) {
	var goal domain.HighGoal
	err := s.withUser(ctx, userID, func(tx *txn) error {
		i := findHighGoal(tx.state.HighGoals, goalID)
		if i < 0 {
			return domain.ErrHighGoalNotFound
		}
		if err := s.validateHighGoal(&in, tx.state); err != nil {
			return err
		}
		o := s.begin(tx)
		tx.touchHighGoals()
		g := &tx.state.HighGoals[i]
		g.Name, g.TaskID, g.TargetValue = in.Name, in.TaskID, in.TargetValue
		g.StartDate, g.EndDate = in.StartDate, in.EndDate
		goal = *g
		s.settle(tx, o)
		return nil
	})
	return goal, err
}

// DeleteHighGoal removes a HighGoal.
func (s *Service) DeleteHighGoal(ctx context.Context, userID, goalID string) error {
	return s.withUser(ctx, userID, func(tx *txn) error {
		i := findHighGoal(tx.state.HighGoals, goalID)
		if i < 0 {
			return domain.ErrHighGoalNotFound
		}
		tx.touchHighGoals()
		tx.state.HighGoals = append(tx.state.HighGoals[:i], tx.state.HighGoals[i+1:]...)
		return nil
	})
}

// HighGoals returns every HighGoal with recomputed progress.
func (s *Service) HighGoals(ctx context.Context, userID string) ([]engagement.HighGoalProgress, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := make([]engagement.HighGoalProgress, 0, len(state.HighGoals))
	for _, g := range state.HighGoals {
		out = append(out, engagement.EvaluateHighGoal(g, state.Records, today))
	}
	return out, nil
}

func findHighGoal(goals []domain.HighGoal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}
