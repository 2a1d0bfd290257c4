package service

import (
	"context"
	"errors"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/policy"
	"github.com/codequesthq/gate/pkg/clientinfo"
	"github.com/codequesthq/gate/pkg/slogx"
)

// GateService is the orchestrator in front of protected operations. It walks
// a request from credential verification through client classification to a
// final verdict, issuing a passcode challenge along the way when the policy
// demands one.
type GateService struct {
	Sessions  *SessionService
	Passcodes *PasscodeService

	// Now is the clock; defaults to time.Now. The app passes a clock that
	// yields operator-local time, since the windows are local hours.
	Now func() time.Time
}

// Authenticate decides whether the holder of the token may proceed right
// now. The original operation is never performed while a challenge is
// outstanding; callers resubmit after SubmitChallenge succeeds.
func (g *GateService) Authenticate(ctx context.Context, token, userAgent string) (domain.Decision, error) {
	user, decision, err := g.verify(ctx, token)
	if err != nil {
		return decision, err
	}

	client := clientinfo.Classify(userAgent)

	if policy.RequiresChallenge(client) {
		challenge, err := g.Passcodes.Issue(ctx, user)
		switch {
		case errors.Is(err, ErrDeliveryFailed):
			// The challenge stands; the code is persisted and valid.
			slogx.FromContext(ctx).Warn("passcode delivery failed",
				"user_id", user.ID, "via_email", challenge.ViaEmail, "err", err)
		case errors.Is(err, ErrNoDestination):
			return domain.Decision{
				Status: domain.StatusDenied,
				Reason: domain.ReasonDependencyFailure,
				UserID: user.ID,
			}, err
		case err != nil:
			return domain.Decision{
				Status: domain.StatusDenied,
				Reason: domain.ReasonDependencyFailure,
				UserID: user.ID,
			}, err
		}

		return domain.Decision{
			Status: domain.StatusChallengeRequired,
			Reason: domain.ReasonChallengeRequired,
			UserID: user.ID,
		}, nil
	}

	return g.windowVerdict(user.ID, client), nil
}

// SubmitChallenge verifies an outstanding passcode for the token holder. A
// correct, unexpired code succeeds exactly once; afterwards the caller
// resubmits the original operation. A wrong or expired code leaves any
// still-valid challenge in place for retry.
func (g *GateService) SubmitChallenge(ctx context.Context, token, code, userAgent string) (domain.Decision, error) {
	user, decision, err := g.verify(ctx, token)
	if err != nil {
		return decision, err
	}

	if err := g.Passcodes.Verify(ctx, user.ID, code); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			return domain.Decision{
				Status: domain.StatusDenied,
				Reason: domain.ReasonInvalidOrExpiredCode,
				UserID: user.ID,
			}, nil
		}
		return domain.Decision{
			Status: domain.StatusDenied,
			Reason: domain.ReasonDependencyFailure,
			UserID: user.ID,
		}, err
	}

	return g.windowVerdict(user.ID, clientinfo.Classify(userAgent)), nil
}

// CheckOperationWindow reports whether an operation class is open at now for
// the given client, along with the applicable window.
func (g *GateService) CheckOperationWindow(op domain.Operation, userAgent string) (bool, string) {
	client := clientinfo.Classify(userAgent)
	return policy.WithinOperationWindow(op, client, g.now()), policy.WindowFor(op, client)
}

// DailyLimit resolves the token holder and computes the current daily
// posting ceiling.
func (g *GateService) DailyLimit(ctx context.Context, token string) (policy.PostLimit, error) {
	user, _, err := g.verify(ctx, token)
	if err != nil {
		return 0, err
	}
	return policy.DailyPostLimit(user, g.now()), nil
}

// verify runs credential verification and maps failures onto denial
// decisions with the right reason code.
func (g *GateService) verify(ctx context.Context, token string) (domain.User, domain.Decision, error) {
	user, err := g.Sessions.VerifySession(ctx, token)
	if err == nil {
		return user, domain.Decision{}, nil
	}

	decision := domain.Decision{Status: domain.StatusDenied}
	switch {
	case errors.Is(err, ErrUserNotFound):
		decision.Reason = domain.ReasonUserNotFound
	case errors.Is(err, ErrInvalidCredential):
		decision.Reason = domain.ReasonInvalidCredential
	default:
		decision.Reason = domain.ReasonDependencyFailure
	}

	return domain.User{}, decision, err
}

// windowVerdict applies the general access window once a request has made it
// past verification and any challenge.
func (g *GateService) windowVerdict(userID string, client clientinfo.Client) domain.Decision {
	if !policy.WithinGeneralAccessWindow(client, g.now()) {
		return domain.Decision{
			Status: domain.StatusDenied,
			Reason: domain.ReasonTimeRestricted,
			UserID: userID,
			Window: policy.WindowFor(domain.OpLogin, client),
		}
	}

	return domain.Decision{Status: domain.StatusAllowed, UserID: userID}
}

func (g *GateService) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
