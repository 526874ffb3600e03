package domain

import "time"

// XPSource names what moved the bonus accumulator.
type XPSource string

const (
	XPGoalBonus      XPSource = "goal_bonus"
	XPTierBonus      XPSource = "tier_bonus"
	XPAchievement    XPSource = "achievement"
	XPPactPenalty    XPSource = "pact_penalty"
	XPDarkPenalty    XPSource = "dark_streak_penalty"
	XPDeclinePenalty XPSource = "dare_declined"
	XPFreezeRefund   XPSource = "freeze_refund"
	XPManual         XPSource = "manual"
)

// XPEntry is one append-only change to a user's BonusPoints.
// Balance is BonusPoints after the change.
type XPEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    XPSource  `json:"source"`
	Amount    float64   `json:"amount"`
	Ref       string    `json:"ref,omitempty"` // goal period, breach ID, tier, ...
	Balance   float64   `json:"balance"`
}
