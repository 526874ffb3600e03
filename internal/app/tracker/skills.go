package tracker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// ErrInsufficientPoints is returned when a task's balance cannot cover a node.
var ErrInsufficientPoints = errors.New("not enough skill points")

// ErrPrerequisiteLocked is returned when a node's prerequisite is still locked.
var ErrPrerequisiteLocked = errors.New("prerequisite node is locked")

// SkillNodeView is a constellation node with its unlock state.
type SkillNodeView struct {
	domain.SkillNode
	Unlocked  bool `json:"unlocked"`
	Available bool `json:"available"` // prerequisite met and affordable
}

// ConstellationView is a task's constellation and balance.
type ConstellationView struct {
	TaskID          string          `json:"task_id"`
	TaskName        string          `json:"task_name"`
	LifetimeValue   float64         `json:"lifetime_value"`
	SpentPoints     float64         `json:"spent_points"`
	AvailablePoints float64         `json:"available_points"`
	Nodes           []SkillNodeView `json:"nodes"`
}

// UnlockResult reports a Unlock attempt.
type UnlockResult struct {
	Unlocked        bool     `json:"unlocked"`
	AvailablePoints float64  `json:"available_points"`
	Outcome         *Outcome `json:"outcome,omitempty"`
}

// Unlock spends cost points from taskID's balance on skillID. It returns
// Unlocked=false without error when the node is already unlocked or the
// balance is short; both changes commit together or not at all.
func (s *Service) Unlock(ctx context.Context, userID, skillID, taskID string, cost float64) (*UnlockResult, error) {
	if !finite(cost) || cost < 0 {
		return nil, domain.Invalid("cost", "must be a non-negative number")
	}
	var res UnlockResult
	err := s.withUser(ctx, userID, func(tx *txn) error {
		if _, ok := tx.state.TaskByID(taskID); !ok {
			return domain.ErrTaskNotFound
		}
		ledger := engagement.NewSkillLedger(tx.state.SpentSkillPoints, tx.state.UnlockedSkills)
		o := s.begin(tx)
		if ledger.Unlock(tx.state.Records, skillID, taskID, cost) {
			tx.state.SpentSkillPoints = ledger.SpentMap()
			tx.state.UnlockedSkills = ledger.UnlockedIDs()
			tx.touchSkills()
			res.Unlocked = true
			res.Outcome = s.settle(tx, o)
		}
		res.AvailablePoints = ledger.AvailablePoints(tx.state.Records, taskID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := "rejected"
	if res.Unlocked {
		result = "unlocked"
		s.log.Info("skill unlocked", zap.String("user", userID), zap.String("skill", skillID), zap.Float64("cost", cost))
	}
	metrics.SkillUnlocks.WithLabelValues(result).Inc()
	return &res, nil
}

// UnlockNode unlocks a catalog node of a task's constellation, enforcing its
// prerequisite and cost.
func (s *Service) UnlockNode(ctx context.Context, userID, taskID, node string) (*UnlockResult, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := state.TaskByID(taskID); !ok {
		return nil, domain.ErrTaskNotFound
	}
	n, ok := engagement.FindSkillNode(taskID, node)
	if !ok {
		return nil, domain.ErrSkillNotFound
	}
	ledger := engagement.NewSkillLedger(state.SpentSkillPoints, state.UnlockedSkills)
	if n.Requires != "" && !ledger.IsUnlocked(n.Requires) {
		return nil, ErrPrerequisiteLocked
	}
	if !ledger.IsUnlocked(n.ID) && ledger.AvailablePoints(state.Records, taskID) < n.Cost {
		return nil, ErrInsufficientPoints
	}
	return s.Unlock(ctx, userID, n.ID, taskID, n.Cost)
}

// Constellation returns a task's nodes with unlock state and balance.
func (s *Service) Constellation(ctx context.Context, userID, taskID string) (*ConstellationView, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	task, ok := state.TaskByID(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	ledger := engagement.NewSkillLedger(state.SpentSkillPoints, state.UnlockedSkills)
	view := &ConstellationView{
		TaskID:          task.ID,
		TaskName:        task.Name,
		LifetimeValue:   engagement.LifetimeSum(state.Records, taskID),
		SpentPoints:     ledger.Spent(taskID),
		AvailablePoints: ledger.AvailablePoints(state.Records, taskID),
	}
	for _, n := range engagement.Constellation(taskID) {
		unlocked := ledger.IsUnlocked(n.ID)
		prereq := n.Requires == "" || ledger.IsUnlocked(n.Requires)
		view.Nodes = append(view.Nodes, SkillNodeView{
			SkillNode: n,
			Unlocked:  unlocked,
			Available: !unlocked && prereq && view.AvailablePoints >= n.Cost,
		})
	}
	return view, nil
}
