package policy

import (
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
)

// PostLimit is a daily posting allowance. Unlimited is the gold-tier value.
type PostLimit int

// Unlimited means no daily ceiling applies.
const Unlimited PostLimit = -1

// IsUnlimited reports whether the limit is the unlimited sentinel.
func (l PostLimit) IsUnlimited() bool { return l == Unlimited }

// DailyPostLimit computes the user's current daily posting ceiling. With an
// active subscription the tier decides; without one the allowance scales
// with social-graph size, capped at two and never below one. Enforcement
// against actual post counts happens elsewhere.
func DailyPostLimit(u domain.User, now time.Time) PostLimit {
	if u.Subscription.ActiveAt(now) {
		switch u.Subscription.Plan {
		case domain.PlanGold:
			return Unlimited
		case domain.PlanSilver:
			return 10
		case domain.PlanBronze:
			return 5
		default:
			return 1
		}
	}

	limit := u.FriendCount
	if limit > 2 {
		limit = 2
	}
	if limit < 1 {
		limit = 1
	}
	return PostLimit(limit)
}
