package engagement

import (
	"sort"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── Constellation Ledger ───────────────────────────────────────────────────
// Each task's lifetime logged value is its skill-point income. Unlocking a
// node spends points from that task's balance. A node stays unlocked forever
// and its cost is deducted exactly once.

// SkillLedger holds spent points per task and the unlocked node set.
type SkillLedger struct {
	spent    map[string]float64
	unlocked map[string]bool
}

// NewSkillLedger copies the persisted ledger state.
func NewSkillLedger(spent map[string]float64, unlocked []string) *SkillLedger {
	l := &SkillLedger{
		spent:    make(map[string]float64, len(spent)),
		unlocked: make(map[string]bool, len(unlocked)),
	}
	for k, v := range spent {
		l.spent[k] = v
	}
	for _, id := range unlocked {
		l.unlocked[id] = true
	}
	return l
}

// AvailablePoints is the task's lifetime sum minus what it has spent.
func (l *SkillLedger) AvailablePoints(records []domain.RecordEntry, taskID string) float64 {
	return LifetimeSum(records, taskID) - l.spent[taskID]
}

// Spent returns the points spent from a task's balance.
func (l *SkillLedger) Spent(taskID string) float64 { return l.spent[taskID] }

// IsUnlocked reports whether a node has been unlocked.
func (l *SkillLedger) IsUnlocked(skillID string) bool { return l.unlocked[skillID] }

// Unlock spends cost from taskID's balance and unlocks skillID.
// It succeeds only if the node is still locked and the balance covers the
// cost; on failure nothing changes. An empty taskID has no balance.
func (l *SkillLedger) Unlock(records []domain.RecordEntry, skillID, taskID string, cost float64) bool {
	if skillID == "" || taskID == "" || cost < 0 || l.unlocked[skillID] {
		return false
	}
	if l.AvailablePoints(records, taskID) < cost {
		return false
	}
	l.spent[taskID] += cost
	l.unlocked[skillID] = true
	return true
}

// SpentMap returns a copy of the spent-points ledger.
func (l *SkillLedger) SpentMap() map[string]float64 {
	out := make(map[string]float64, len(l.spent))
	for k, v := range l.spent {
		out[k] = v
	}
	return out
}

// UnlockedIDs returns the unlocked nodes, sorted.
func (l *SkillLedger) UnlockedIDs() []string {
	out := make([]string, 0, len(l.unlocked))
	for id := range l.unlocked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ─── Constellation Catalog ──────────────────────────────────────────────────

var constellationTemplate = []struct {
	key  string
	name string
	cost float64
}{
	{"spark", "Spark", 50},
	{"ember", "Ember", 150},
	{"flare", "Flare", 300},
	{"nova", "Nova", 600},
	{"supernova", "Supernova", 1000},
}

// SkillID is the global node ID for a task's constellation node.
func SkillID(taskID, nodeKey string) string {
	return taskID + ":" + nodeKey
}

// Constellation returns the node chain for a task. Each node requires the
// one before it.
func Constellation(taskID string) []domain.SkillNode {
	nodes := make([]domain.SkillNode, len(constellationTemplate))
	prev := ""
	for i, t := range constellationTemplate {
		id := SkillID(taskID, t.key)
		nodes[i] = domain.SkillNode{ID: id, Name: t.name, Cost: t.cost, Requires: prev}
		prev = id
	}
	return nodes
}

// FindSkillNode looks up a node by its key ("ember") or full ID.
func FindSkillNode(taskID, node string) (domain.SkillNode, bool) {
	for _, n := range Constellation(taskID) {
		if n.ID == node || n.ID == SkillID(taskID, node) {
			return n, true
		}
	}
	return domain.SkillNode{}, false
}
