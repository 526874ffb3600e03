package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// AdjustBonus applies a manual correction to the bonus accumulator.
// Negative amounts deduct; the level may drop.
func (s *Service) AdjustBonus(ctx context.Context, userID string, amount float64, reason string) (*Outcome, error) {
	if !finite(amount) || amount == 0 {
		return nil, domain.Invalid("amount", "must be a non-zero number")
	}
	reason = s.clean(reason)
	var out *Outcome
	err := s.withUser(ctx, userID, func(tx *txn) error {
		o := s.begin(tx)
		tx.addBonus(domain.XPManual, amount, reason)
		out = s.settle(tx, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("bonus adjusted", zap.String("user", userID), zap.Float64("amount", amount), zap.String("reason", reason))
	return out, nil
}

// CheckAchievements pays any reward the current document already qualifies
// for. Commands settle rewards themselves; this catches up after rule changes.
func (s *Service) CheckAchievements(ctx context.Context, userID string) (*Outcome, error) {
	var out *Outcome
	err := s.withUser(ctx, userID, func(tx *txn) error {
		out = s.settle(tx, s.begin(tx))
		return nil
	})
	return out, err
}
