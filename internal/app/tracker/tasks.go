package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// TaskInput is the editable part of a task definition.
type TaskInput struct {
	Name                          string               `json:"name"`
	Color                         string               `json:"color,omitempty"`
	Unit                          string               `json:"unit,omitempty"`
	CustomUnitName                string               `json:"custom_unit_name,omitempty"`
	IntensityThresholds           []float64            `json:"intensity_thresholds,omitempty"`
	DarkStreakEnabled             bool                 `json:"dark_streak_enabled,omitempty"`
	FrequencyType                 domain.FrequencyType `json:"frequency_type,omitempty"`
	FrequencyCount                int                  `json:"frequency_count,omitempty"`
	GoalValue                     *float64             `json:"goal_value,omitempty"`
	GoalInterval                  domain.GoalInterval  `json:"goal_interval,omitempty"`
	GoalType                      domain.GoalType      `json:"goal_type,omitempty"`
	GoalCompletionBonusPercentage *float64             `json:"goal_completion_bonus_percentage,omitempty"`
}

// TaskInputFrom returns the editable fields of an existing task.
func TaskInputFrom(t domain.TaskDefinition) TaskInput {
	return TaskInput{
		Name:                          t.Name,
		Color:                         t.Color,
		Unit:                          t.Unit,
		CustomUnitName:                t.CustomUnitName,
		IntensityThresholds:           t.IntensityThresholds,
		DarkStreakEnabled:             t.DarkStreakEnabled,
		FrequencyType:                 t.FrequencyType,
		FrequencyCount:                t.FrequencyCount,
		GoalValue:                     t.GoalValue,
		GoalInterval:                  t.GoalInterval,
		GoalType:                      t.GoalType,
		GoalCompletionBonusPercentage: t.GoalCompletionBonusPercentage,
	}
}

func (in TaskInput) apply(t *domain.TaskDefinition) {
	t.Name = in.Name
	t.Color = in.Color
	t.Unit = in.Unit
	t.CustomUnitName = in.CustomUnitName
	t.IntensityThresholds = in.IntensityThresholds
	t.DarkStreakEnabled = in.DarkStreakEnabled
	t.FrequencyType = in.FrequencyType
	t.FrequencyCount = in.FrequencyCount
	t.GoalValue = in.GoalValue
	t.GoalInterval = in.GoalInterval
	t.GoalType = in.GoalType
	t.GoalCompletionBonusPercentage = in.GoalCompletionBonusPercentage
}

// CreateTask adds a task definition.
func (s *Service) CreateTask(ctx context.Context, userID string, in TaskInput) (domain.TaskDefinition, error) {
	var task domain.TaskDefinition
	err := s.withUser(ctx, userID, func(tx *txn) error {
		if err := s.validateTask(&in, tx.state.Tasks, ""); err != nil {
			return err
		}
		o := s.begin(tx)
		task = domain.TaskDefinition{ID: s.newID(), CreatedAt: tx.now}
		in.apply(&task)
		tx.touchTasks()
		tx.state.Tasks = append(tx.state.Tasks, task)
		s.settle(tx, o)
		return nil
	})
	if err != nil {
		return domain.TaskDefinition{}, err
	}
	s.log.Info("task created", zap.String("user", userID), zap.String("task", task.ID), zap.String("name", task.Name))
	return task, nil
}

// UpdateTask replaces a task's editable fields.
func (s *Service) UpdateTask(ctx context.Context, userID, taskID string, in TaskInput) (domain.TaskDefinition, error) {
	var task domain.TaskDefinition
	err := s.withUser(ctx, userID, func(tx *txn) error {
		t, ok := tx.state.TaskByID(taskID)
		if !ok {
			return domain.ErrTaskNotFound
		}
		if err := s.validateTask(&in, tx.state.Tasks, taskID); err != nil {
			return err
		}
		tx.touchTasks()
		in.apply(t)
		task = *t
		return nil
	})
	return task, err
}

// DeleteTask removes a task. Its records stay but become unassigned, and its
// goal and milestone ledgers are dropped.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	err := s.withUser(ctx, userID, func(tx *txn) error {
		idx := -1
		for i := range tx.state.Tasks {
			if tx.state.Tasks[i].ID == taskID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrTaskNotFound
		}
		tx.touchTasks()
		tx.state.Tasks = append(tx.state.Tasks[:idx], tx.state.Tasks[idx+1:]...)

		for i := range tx.state.Records {
			if tx.state.Records[i].TaskType == taskID {
				tx.touchRecords()
				tx.state.Records[i].TaskType = ""
			}
		}

		kept := make([]domain.HighGoal, 0, len(tx.state.HighGoals))
		for _, g := range tx.state.HighGoals {
			if g.TaskID != taskID {
				kept = append(kept, g)
			}
		}
		if len(kept) != len(tx.state.HighGoals) {
			tx.state.HighGoals = kept
			tx.touchHighGoals()
		}

		if _, ok := tx.state.SettledGoalPeriods[taskID]; ok {
			delete(tx.state.SettledGoalPeriods, taskID)
			tx.touchSettled()
		}
		if _, ok := tx.state.AwardedStreakMilestones[taskID]; ok {
			delete(tx.state.AwardedStreakMilestones, taskID)
			tx.touchMilestones()
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("task deleted", zap.String("user", userID), zap.String("task", taskID))
	return nil
}

// ListTasks returns the user's task definitions.
func (s *Service) ListTasks(ctx context.Context, userID string) ([]domain.TaskDefinition, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Tasks, nil
}

// FindTask resolves a task by ID or case-insensitive name.
func (s *Service) FindTask(ctx context.Context, userID, ref string) (domain.TaskDefinition, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return domain.TaskDefinition{}, err
	}
	t, ok := lookupTask(state, ref)
	if !ok {
		return domain.TaskDefinition{}, domain.ErrTaskNotFound
	}
	return *t, nil
}
