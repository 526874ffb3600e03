// Package tracker is the stateful LifeQuest service: every command is one
// read-modify-write of a user document, serialized per user and persisted as
// a single merge-style save through domain.UserStore.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// Options configures a Service. Zero values select defaults.
type Options struct {
	Levels   *engagement.LevelTable
	Rules    *Rules
	Location *time.Location
	Clock    func() time.Time
	Logger   *zap.Logger
	NewID    func() string
}

// Service implements the LifeQuest commands and queries.
type Service struct {
	store  domain.UserStore
	levels *engagement.LevelTable
	rules  Rules
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
	newID  func() string
	policy *bluemonday.Policy

	locks sync.Map // userID → *sync.Mutex
}

// NewService creates a tracker over store.
func NewService(store domain.UserStore, opts Options) *Service {
	s := &Service{
		store:  store,
		levels: opts.Levels,
		loc:    opts.Location,
		now:    opts.Clock,
		log:    opts.Logger,
		newID:  opts.NewID,
		policy: bluemonday.StrictPolicy(),
	}
	if s.levels == nil {
		s.levels = engagement.DefaultLevelTable()
	}
	if opts.Rules != nil {
		s.rules = *opts.Rules
	} else {
		s.rules = DefaultRules()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// Levels returns the level table in use.
func (s *Service) Levels() *engagement.LevelTable { return s.levels }

// Rules returns the economy rules in use.
func (s *Service) Rules() Rules { return s.rules }

// Today is the current calendar day in the service's location.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.now().In(s.loc))
}

// State returns the user's stored document.
func (s *Service) State(ctx context.Context, userID string) (*domain.UserState, error) {
	state, err := s.store.LoadUserState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", userID, err)
	}
	return state, nil
}

// Users lists every stored user and refreshes the user gauge.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ActiveUsers.Set(float64(len(users)))
	return users, nil
}

// XPHistory returns the newest bonus ledger entries.
func (s *Service) XPHistory(ctx context.Context, userID string, limit int) ([]domain.XPEntry, error) {
	return s.store.XPHistory(ctx, userID, limit)
}

// ─── Read-Modify-Write ──────────────────────────────────────────────────────

func (s *Service) lock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// withUser runs fn against a fresh copy of the user's document and saves the
// fields fn touched. Nothing is written when fn fails.
func (s *Service) withUser(ctx context.Context, userID string, fn func(tx *txn) error) error {
	if userID == "" {
		return domain.Invalid("user", "must not be empty")
	}
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.LoadUserState(ctx, userID)
	if err != nil {
		return fmt.Errorf("load %s: %w", userID, err)
	}
	state.EnsureMaps()

	tx := &txn{state: state, today: s.Today(), now: s.now()}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.patch.IsEmpty() {
		return nil
	}
	if err := s.store.SaveUserState(ctx, userID, tx.patch); err != nil {
		return fmt.Errorf("save %s: %w", userID, err)
	}
	return nil
}

// txn is the mutable view of one user document inside withUser.
// Every mutation goes through a touch helper so the patch carries it.
type txn struct {
	state *domain.UserState
	patch domain.StatePatch
	today domain.Date
	now   time.Time
}

func (t *txn) touchRecords() {
	if t.state.Records == nil {
		t.state.Records = []domain.RecordEntry{}
	}
	t.patch.Records = &t.state.Records
}

func (t *txn) touchTasks() {
	if t.state.Tasks == nil {
		t.state.Tasks = []domain.TaskDefinition{}
	}
	t.patch.Tasks = &t.state.Tasks
}

func (t *txn) touchAchievements() {
	if t.state.UnlockedAchievements == nil {
		t.state.UnlockedAchievements = []string{}
	}
	t.patch.UnlockedAchievements = &t.state.UnlockedAchievements
}

func (t *txn) touchSkills() {
	if t.state.UnlockedSkills == nil {
		t.state.UnlockedSkills = []string{}
	}
	t.patch.SpentSkillPoints = &t.state.SpentSkillPoints
	t.patch.UnlockedSkills = &t.state.UnlockedSkills
}

func (t *txn) touchCrystals() { t.patch.FreezeCrystals = &t.state.FreezeCrystals }

func (t *txn) touchMilestones() { t.patch.AwardedStreakMilestones = &t.state.AwardedStreakMilestones }

func (t *txn) touchSettled() { t.patch.SettledGoalPeriods = &t.state.SettledGoalPeriods }

func (t *txn) touchHighGoals() {
	if t.state.HighGoals == nil {
		t.state.HighGoals = []domain.HighGoal{}
	}
	t.patch.HighGoals = &t.state.HighGoals
}

func (t *txn) touchPacts() {
	if t.state.TodoItems == nil {
		t.state.TodoItems = []domain.TodoItem{}
	}
	t.patch.TodoItems = &t.state.TodoItems
}

func (t *txn) touchBreaches() {
	if t.state.Breaches == nil {
		t.state.Breaches = []domain.Breach{}
	}
	t.patch.Breaches = &t.state.Breaches
}

func (t *txn) touchFriends() {
	if t.state.Friends == nil {
		t.state.Friends = []string{}
	}
	t.patch.Friends = &t.state.Friends
}

// addBonus moves the bonus accumulator and journals the change.
func (t *txn) addBonus(source domain.XPSource, amount float64, ref string) {
	if amount == 0 {
		return
	}
	t.state.BonusPoints += amount
	t.patch.BonusPoints = &t.state.BonusPoints
	t.patch.Ledger = append(t.patch.Ledger, domain.XPEntry{
		Timestamp: t.now,
		Source:    source,
		Amount:    amount,
		Ref:       ref,
		Balance:   t.state.BonusPoints,
	})
	if amount > 0 {
		metrics.BonusAwarded.WithLabelValues(string(source)).Add(amount)
	} else {
		metrics.PenaltiesApplied.WithLabelValues(string(source)).Add(-amount)
	}
}

func (t *txn) hasAchievement(id string) bool {
	for _, a := range t.state.UnlockedAchievements {
		if a == id {
			return true
		}
	}
	return false
}

func (t *txn) unlockAchievement(id string) {
	t.touchAchievements()
	t.state.UnlockedAchievements = append(t.state.UnlockedAchievements, id)
}

func (t *txn) totalExperience() float64 {
	return engagement.TotalExperience(t.state.Records, t.state.BonusPoints)
}
