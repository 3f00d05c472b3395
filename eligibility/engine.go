package eligibility

import "time"

// Gift kinds the mini-app front end knows about.
const (
	GiftBear  = "bear"
	GiftHeart = "heart"
	GiftBox   = "box"
	GiftRose  = "rose"
)

// Task kinds. Only the bear task exists today.
const (
	TaskBear = "bear"
)

const (
	// ClaimCooldown is the minimum gap between two granted claims of the
	// same gift kind by the same user.
	ClaimCooldown = 48 * time.Hour

	// RequiredActiveInvites applies to both gift and task claims.
	RequiredActiveInvites int64 = 10

	// DefaultAdViewThreshold covers gift kinds missing from the table.
	DefaultAdViewThreshold int64 = 200

	// ActiveInviteMinAge is the activity policy for referred users: an
	// invite counts as active once the account is at least this old.
	ActiveInviteMinAge = 48 * time.Hour
)

var adViewThresholds = map[string]int64{
	GiftBear:  200,
	GiftHeart: 250,
	GiftBox:   350,
	GiftRose:  350,
}

// Reason is a machine-readable rejection code.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonCooldownActive      Reason = "CooldownActive"
	ReasonInsufficientAdViews Reason = "InsufficientAdViews"
	ReasonInsufficientInvites Reason = "InsufficientInvites"
	ReasonAlreadyClaimed      Reason = "AlreadyClaimed"
	ReasonUnknownTask         Reason = "UnknownTask"
)

// ClaimSnapshot is everything the engine needs to decide one gift claim,
// read from storage before (or inside) the claim transaction.
type ClaimSnapshot struct {
	AdViews       int64
	ActiveInvites int64
	LastClaimAt   *time.Time
}

// TaskSnapshot is the task-claim counterpart.
type TaskSnapshot struct {
	ActiveInvites  int64
	AlreadyClaimed bool
}

// Mutation is the state change the storage layer must apply atomically when
// a claim is granted. The engine computes it but never applies it.
type Mutation struct {
	ResetAdViews int64
	LastClaimAt  time.Time
	GrantInc     int64
}

// Decision is the outcome of an eligibility evaluation.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Deficit    int64         // ad views still needed, for InsufficientAdViews
	RetryAfter time.Duration // cooldown remaining, for CooldownActive
	Mutation   *Mutation
}

// AdViewThreshold returns the required view count for a gift kind.
func AdViewThreshold(gift string) int64 {
	if t, ok := adViewThresholds[gift]; ok {
		return t
	}
	return DefaultAdViewThreshold
}

// KnownGift reports whether gift is one of the supported kinds.
func KnownGift(gift string) bool {
	_, ok := adViewThresholds[gift]
	return ok
}

// KnownTask reports whether task is one of the supported kinds.
func KnownTask(task string) bool {
	return task == TaskBear
}

// EvaluateClaim decides whether a gift claim may proceed right now. Pure:
// identical snapshots always produce identical decisions, so the call is
// safe to re-run as the body of a storage-level check-and-set.
//
// Checks short-circuit in order: cooldown, ad views, invites.
func EvaluateClaim(gift string, snap ClaimSnapshot, now time.Time) Decision {
	if snap.LastClaimAt != nil {
		elapsed := now.Sub(*snap.LastClaimAt)
		if elapsed < ClaimCooldown {
			return Decision{Reason: ReasonCooldownActive, RetryAfter: ClaimCooldown - elapsed}
		}
	}

	required := AdViewThreshold(gift)
	if snap.AdViews < required {
		return Decision{Reason: ReasonInsufficientAdViews, Deficit: required - snap.AdViews}
	}

	if snap.ActiveInvites < RequiredActiveInvites {
		return Decision{Reason: ReasonInsufficientInvites}
	}

	return Decision{
		Allowed:  true,
		Mutation: &Mutation{ResetAdViews: 0, LastClaimAt: now, GrantInc: 1},
	}
}

// EvaluateTaskClaim decides a task claim. Tasks skip the cooldown and
// ad-view checks but are strictly once per (user, task).
func EvaluateTaskClaim(task string, snap TaskSnapshot) Decision {
	if !KnownTask(task) {
		return Decision{Reason: ReasonUnknownTask}
	}
	if snap.AlreadyClaimed {
		return Decision{Reason: ReasonAlreadyClaimed}
	}
	if snap.ActiveInvites < RequiredActiveInvites {
		return Decision{Reason: ReasonInsufficientInvites}
	}
	return Decision{Allowed: true}
}
