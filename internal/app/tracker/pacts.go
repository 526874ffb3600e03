package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// PactInput is the editable part of a pact.
type PactInput struct {
	Text    string       `json:"text"`
	DueDate *domain.Date `json:"due_date,omitempty"`
	Penalty *float64     `json:"penalty,omitempty"`
}

// PactView is a pact with its lifecycle state.
type PactView struct {
	domain.TodoItem
	Status  domain.PactStatus `json:"status"`
	Mutable bool              `json:"mutable"`
}

// SweepResult lists the breaches a sweep opened.
type SweepResult struct {
	Breaches  []domain.Breach `json:"breaches"`
	Deducted  float64         `json:"deducted"`
	LevelDrop bool            `json:"level_drop"`
}

// ─── Pact CRUD ──────────────────────────────────────────────────────────────

// CreatePact adds a pact created today.
func (s *Service) CreatePact(ctx context.Context, userID string, in PactInput) (domain.TodoItem, error) {
	var item domain.TodoItem
	err := s.withUser(ctx, userID, func(tx *txn) error {
		if err := s.validatePact(&in, tx.today); err != nil {
			return err
		}
		item = domain.TodoItem{
			ID:        s.newID(),
			Text:      in.Text,
			CreatedAt: tx.today,
			DueDate:   in.DueDate,
			Penalty:   in.Penalty,
		}
		tx.touchPacts()
		tx.state.TodoItems = append(tx.state.TodoItems, item)
		return nil
	})
	return item, err
}

// UpdatePact edits a pact. Only pacts created today can change.
func (s *Service) UpdatePact(ctx context.Context, userID, pactID string, in PactInput) (domain.TodoItem, error) {
	var item domain.TodoItem
	err := s.withUser(ctx, userID, func(tx *txn) error {
		p, err := mutablePact(tx, pactID)
		if err != nil {
			return err
		}
		if err := s.validatePact(&in, tx.today); err != nil {
			return err
		}
		tx.touchPacts()
		p.Text, p.DueDate, p.Penalty = in.Text, in.DueDate, in.Penalty
		item = *p
		return nil
	})
	return item, err
}

// TogglePact flips a pact's completion. Only pacts created today can change,
// except dares, which stay completable until breached.
func (s *Service) TogglePact(ctx context.Context, userID, pactID string) (domain.TodoItem, error) {
	var item domain.TodoItem
	err := s.withUser(ctx, userID, func(tx *txn) error {
		i := findPact(tx.state.TodoItems, pactID)
		if i < 0 {
			return domain.ErrPactNotFound
		}
		p := &tx.state.TodoItems[i]
		switch {
		case engagement.IsPactMutable(*p, tx.today):
		case p.IsDare && !p.Completed && engagement.PactStatusOf(*p, tx.today) == domain.PactActive:
		default:
			return domain.ErrPactLocked
		}
		o := s.begin(tx)
		tx.touchPacts()
		p.Completed = !p.Completed
		item = *p
		s.settle(tx, o)
		return nil
	})
	return item, err
}

// DeletePact removes a pact created today.
func (s *Service) DeletePact(ctx context.Context, userID, pactID string) error {
	return s.withUser(ctx, userID, func(tx *txn) error {
		if _, err := mutablePact(tx, pactID); err != nil {
			return err
		}
		i := findPact(tx.state.TodoItems, pactID)
		tx.touchPacts()
		tx.state.TodoItems = append(tx.state.TodoItems[:i], tx.state.TodoItems[i+1:]...)
		return nil
	})
}

// Pacts returns every pact with its status, newest first.
func (s *Service) Pacts(ctx context.Context, userID string) ([]PactView, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := make([]PactView, 0, len(state.TodoItems))
	for i := len(state.TodoItems) - 1; i >= 0; i-- {
		item := state.TodoItems[i]
		out = append(out, PactView{
			TodoItem: item,
			Status:   engagement.PactStatusOf(item, today),
			Mutable:  engagement.IsPactMutable(item, today),
		})
	}
	return out, nil
}

func mutablePact(tx *txn, pactID string) (*domain.TodoItem, error) {
	i := findPact(tx.state.TodoItems, pactID)
	if i < 0 {
		return nil, domain.ErrPactNotFound
	}
	p := &tx.state.TodoItems[i]
	if !engagement.IsPactMutable(*p, tx.today) {
		return nil, domain.ErrPactLocked
	}
	return p, nil
}

func findPact(items []domain.TodoItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// ─── Breaches ───────────────────────────────────────────────────────────────

// Sweep opens breaches for overdue pacts and broken dark streaks, deducting
// each penalty exactly once. Running it again the same day changes nothing.
func (s *Service) Sweep(ctx context.Context, userID string) (*SweepResult, error) {
	res := &SweepResult{}
	err := s.withUser(ctx, userID, func(tx *txn) error {
		before := s.levels.LevelForXP(tx.totalExperience())

		pending := append([]domain.TodoItem(nil), tx.state.TodoItems...)
		breaches, _ := engagement.SweepOverduePacts(pending, tx.today)
		if !pactsEqual(pending, tx.state.TodoItems) {
			tx.state.TodoItems = pending
			tx.touchPacts()
		}
		for _, b := range breaches {
			if s.openBreach(tx, b) {
				res.Breaches = append(res.Breaches, b)
			}
		}

		for _, task := range tx.state.Tasks {
			var after domain.Date
			if last, ok := engagement.LastDarkBreach(tx.state.Breaches, task.ID); ok {
				after = last
			}
			b, ok := engagement.DetectDarkStreakBreach(task, tx.state.Records, tx.today, after, s.rules.breachRules())
			if ok && s.openBreach(tx, b) {
				res.Breaches = append(res.Breaches, b)
			}
		}

		for _, b := range res.Breaches {
			res.Deducted += b.Penalty
		}
		res.LevelDrop = s.levels.LevelForXP(tx.totalExperience()) < before
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(res.Breaches) > 0 {
		s.log.Info("breaches opened",
			zap.String("user", userID),
			zap.Int("count", len(res.Breaches)),
			zap.Float64("deducted", res.Deducted),
		)
	}
	return res, nil
}

// openBreach records b and deducts its penalty unless a breach with the same
// ID already exists.
func (s *Service) openBreach(tx *txn, b domain.Breach) bool {
	for _, existing := range tx.state.Breaches {
		if existing.ID == b.ID {
			return false
		}
	}
	tx.touchBreaches()
	tx.state.Breaches = append(tx.state.Breaches, b)

	source := domain.XPPactPenalty
	if b.Kind == domain.BreachDarkStreak {
		source = domain.XPDarkPenalty
	}
	tx.addBonus(source, -b.Penalty, b.ID)
	return true
}

// Breaches returns every breach, newest first.
func (s *Service) Breaches(ctx context.Context, userID string, openOnly bool) ([]domain.Breach, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Breach, 0, len(state.Breaches))
	for i := len(state.Breaches) - 1; i >= 0; i-- {
		b := state.Breaches[i]
		if openOnly && !b.IsOpen() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// AcceptDare resolves an open breach by taking on a dare pact.
func (s *Service) AcceptDare(ctx context.Context, userID, breachID, text string) (domain.TodoItem, error) {
	var dare domain.TodoItem
	err := s.withUser(ctx, userID, func(tx *txn) error {
		b, err := openBreachByID(tx, breachID)
		if err != nil {
			return err
		}
		text = s.clean(text)
		if text == "" {
			text = "Dare: make up for " + b.ID
		}
		d, ok := engagement.AcceptDare(b, s.newID(), text, tx.today, s.rules.breachRules())
		if !ok {
			return domain.Invalid("breach", "already resolved")
		}
		tx.touchBreaches()
		tx.touchPacts()
		tx.state.TodoItems = append(tx.state.TodoItems, d)
		dare = d
		return nil
	})
	if err != nil {
		return domain.TodoItem{}, err
	}
	metrics.BreachesResolved.WithLabelValues(string(domain.BreachDareAccepted)).Inc()
	return dare, nil
}

// DeclineDare resolves an open breach with the extra penalty.
func (s *Service) DeclineDare(ctx context.Context, userID, breachID string) (float64, error) {
	var extra float64
	err := s.withUser(ctx, userID, func(tx *txn) error {
		b, err := openBreachByID(tx, breachID)
		if err != nil {
			return err
		}
		e, ok := engagement.DeclineDare(b, tx.today, s.rules.breachRules())
		if !ok {
			return domain.Invalid("breach", "already resolved")
		}
		tx.touchBreaches()
		tx.addBonus(domain.XPDeclinePenalty, -e, b.ID)
		extra = e
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.BreachesResolved.WithLabelValues(string(domain.BreachDeclined)).Inc()
	return extra, nil
}

// FreezeBreach spends a freeze crystal on an open breach and refunds its
// penalty. It returns false without error when no crystal is left.
func (s *Service) FreezeBreach(ctx context.Context, userID, breachID string) (bool, error) {
	var frozen bool
	err := s.withUser(ctx, userID, func(tx *txn) error {
		b, err := openBreachByID(tx, breachID)
		if err != nil {
			return err
		}
		refund, ok := engagement.FreezeBreach(b, &tx.state.FreezeCrystals, tx.today)
		if !ok {
			return nil
		}
		tx.touchBreaches()
		tx.touchCrystals()
		tx.addBonus(domain.XPFreezeRefund, refund, b.ID)
		frozen = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if frozen {
		metrics.CrystalsConsumed.Inc()
		metrics.BreachesResolved.WithLabelValues(string(domain.BreachFrozen)).Inc()
	}
	return frozen, nil
}

func openBreachByID(tx *txn, id string) (*domain.Breach, error) {
	for i := range tx.state.Breaches {
		if tx.state.Breaches[i].ID == id {
			b := &tx.state.Breaches[i]
			if !b.IsOpen() {
				return nil, domain.Invalid("breach", "already resolved")
			}
			return b, nil
		}
	}
	return nil, domain.ErrBreachNotFound
}

func pactsEqual(a, b []domain.TodoItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PenaltyApplied != b[i].PenaltyApplied {
			return false
		}
	}
	return true
}
