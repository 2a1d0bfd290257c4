package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/notify"
	"github.com/codequesthq/gate/internal/gate/policy"
	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/pkg/slogx"
)

// SubscriptionService records plan changes. Subscription processing is only
// open during its window; the payment charge itself happens with an external
// provider and is out of scope here.
type SubscriptionService struct {
	Store  store.Store
	Mailer notify.SubscriptionMailer

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Activate puts the user on a paid plan for the given number of months.
// The confirmation email is fire-and-forget: the subscription is recorded
// once the store write lands, whatever the mail provider does.
func (s *SubscriptionService) Activate(ctx context.Context, userID string, plan domain.Plan, months int) (domain.Subscription, error) {
	if !domain.ValidPlan(plan) || plan == domain.PlanFree {
		return domain.Subscription{}, ErrInvalidPlan
	}
	if months < 1 {
		months = 1
	}

	now := s.now()
	if !policy.WithinSubscriptionWindow(now) {
		return domain.Subscription{}, ErrSubscriptionWindowClosed
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Subscription{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("%w: load user: %w", ErrDependencyUnavailable, err)
	}

	startsAt := now
	endsAt := now.AddDate(0, months, 0)
	sub := domain.Subscription{
		Plan:     plan,
		StartsAt: &startsAt,
		EndsAt:   &endsAt,
	}

	if err := s.Store.Users().UpdateSubscription(ctx, userID, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("%w: update subscription: %w", ErrDependencyUnavailable, err)
	}

	if s.Mailer != nil && user.Email != "" {
		details := notify.SubscriptionDetails{
			Plan:     string(plan),
			StartsAt: startsAt.Format("2006-01-02"),
			EndsAt:   endsAt.Format("2006-01-02"),
		}
		if err := s.Mailer.SendSubscriptionConfirmation(ctx, user.Email, details); err != nil {
			slogx.FromContext(ctx).Warn("subscription confirmation email failed",
				"user_id", userID, "err", err)
		}
	}

	return sub, nil
}

func (s *SubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
