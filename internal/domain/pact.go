package domain

// TodoItem is a pact: a to-do with an optional due date and XP penalty.
// Only items created today may be edited or deleted.
type TodoItem struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Completed      bool     `json:"completed"`
	CreatedAt      Date     `json:"created_at"`
	DueDate        *Date    `json:"due_date,omitempty"`
	Penalty        *float64 `json:"penalty,omitempty"`
	PenaltyApplied bool     `json:"penalty_applied,omitempty"`
	IsDare         bool     `json:"is_dare,omitempty"`
}

// PactStatus is the lifecycle state of a pact or streak obligation.
type PactStatus string

const (
	PactActive   PactStatus = "active"
	PactHonored  PactStatus = "honored"
	PactBreached PactStatus = "breached"
)

// BreachKind identifies what was broken.
type BreachKind string

const (
	BreachPact       BreachKind = "pact"
	BreachDarkStreak BreachKind = "dark_streak"
)

// BreachState tracks how a breach was resolved.
type BreachState string

const (
	BreachOpen         BreachState = "breached"
	BreachDareAccepted BreachState = "dare_accepted"
	BreachDeclined     BreachState = "declined"
	BreachFrozen       BreachState = "frozen"
)

// Breach is a missed pact deadline or a broken dark streak.
// The penalty is deducted once when the breach is created; a freeze crystal
// later refunds it, a declined dare adds to it.
type Breach struct {
	ID             string      `json:"id"`
	Kind           BreachKind  `json:"kind"`
	SubjectID      string      `json:"subject_id"` // pact or task ID
	Date           Date        `json:"date"`
	Penalty        float64     `json:"penalty"`
	PenaltyApplied bool        `json:"penalty_applied"`
	ExtraPenalty   float64     `json:"extra_penalty,omitempty"`
	State          BreachState `json:"state"`
	ResolvedOn     *Date       `json:"resolved_on,omitempty"`
	DareID         string      `json:"dare_id,omitempty"`
}

// IsOpen reports whether the breach still awaits a resolution.
func (b Breach) IsOpen() bool { return b.State == BreachOpen }
