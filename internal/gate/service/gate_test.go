package service

import (
	"context"
	"testing"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/policy"
	"github.com/stretchr/testify/require"
)

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	edgeUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
	mobileUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
)

type gateFixture struct {
	gate     *GateService
	sessions *SessionService
	email    *captureNotifier
}

// newGateFixture wires a full gate against a real store with the clock
// pinned to the given hour.
func newGateFixture(t *testing.T, hour int) gateFixture {
	t.Helper()

	st := newTestStore(t)
	now := fixedClock(time.Date(2025, 6, 2, hour, 15, 0, 0, time.UTC))

	email := &captureNotifier{}
	sessions := &SessionService{Store: st, Tokens: newTestTokens(t), Issuer: "gate-test", Now: now}
	passcodes := &PasscodeService{Store: st, Email: email, SMS: &captureNotifier{}, Now: now}

	return gateFixture{
		gate:     &GateService{Sessions: sessions, Passcodes: passcodes, Now: now},
		sessions: sessions,
		email:    email,
	}
}

func (f gateFixture) login(t *testing.T, u domain.User) string {
	t.Helper()

	token, err := f.sessions.IssueSession(context.Background(), u, edgeClient, "203.0.113.7")
	require.NoError(t, err)
	return token
}

func TestAuthenticateTrustedAgentAllowedInWindow(t *testing.T) {
	t.Parallel()

	f := newGateFixture(t, 10)
	user := createUser(t, f.sessions.Store, domain.User{Email: "ada@example.com"})
	token := f.login(t, user)

	decision, err := f.gate.Authenticate(context.Background(), token, edgeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAllowed, decision.Status)
	require.Equal(t, user.ID, decision.UserID)
	require.Empty(t, decision.Reason)
}

func TestAuthenticateTrustedAgentOutsideWindow(t *testing.T) {
	t.Parallel()

	f := newGateFixture(t, 9)
	user := createUser(t, f.sessions.Store, domain.User{Email: "ada@example.com"})
	token := f.login(t, user)

	decision, err := f.gate.Authenticate(context.Background(), token, edgeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDenied, decision.Status)
	require.Equal(t, domain.ReasonTimeRestricted, decision.Reason)
	require.Equal(t, "10:00-11:00", decision.Window)
}

func TestAuthenticateChromeDemandsChallenge(t *testing.T) {
	t.Parallel()

	f := newGateFixture(t, 10)
	user := createUser(t, f.sessions.Store, domain.User{Email: "ada@example.com"})
	token := f.login(t, user)

	decision, err := f.gate.Authenticate(context.Background(), token, chromeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusChallengeRequired, decision.Status)
	require.Equal(t, domain.ReasonChallengeRequired, decision.Reason)

	// A passcode went out; the original operation was not performed.
	require.Regexp(t, sixDigits, f.email.last(t).Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	t.Parallel()

	f := newGateFixture(t, 10)

	decision, err := f.gate.Authenticate(context.Background(), "bogus", edgeUA)
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.Equal(t, domain.StatusDenied, decision.Status)
	require.Equal(t, domain.ReasonInvalidCredential, decision.Reason)
}

func TestAuthenticateStoreDownIsDependencyFailure(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	sessions := &SessionService{Store: st, Tokens: newTestTokens(t), Issuer: "gate-test"}
	gate := &GateService{
		Sessions:  sessions,
		Passcodes: &PasscodeService{Store: st, Email: &captureNotifier{}},
	}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})
	token, err := sessions.IssueSession(context.Background(), user, edgeClient, "")
	require.NoError(t, err)

	// Token stays valid; only the store behind the gate goes away.
	require.NoError(t, st.Close())

	decision, err := gate.Authenticate(context.Background(), token, edgeUA)
	require.ErrorIs(t, err, ErrDependencyUnavailable)
	require.Equal(t, domain.StatusDenied, decision.Status)
	require.Equal(t, domain.ReasonDependencyFailure, decision.Reason)
}

func TestSubmitChallengeWrongCodeStaysPending(t *testing.T) {
	t.Parallel()

	f := newGateFixture(t, 10)
	user := createUser(t, f.sessions.Store, domain.User{Email: "ada@example.com"})
	token := f.login(t, user)

	_, err := f.gate.Authenticate(context.Background(), token, chromeUA)
	require.NoError(t, err)
	code := f.email.last(t).Code

	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}
	decision, err := f.gate.SubmitChallenge(context.Background(), token, wrong, chromeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDenied, decision.Status)
	require.Equal(t, domain.ReasonInvalidOrExpiredCode, decision.Reason)

	// Retry with the right code still works.
	decision, err = f.gate.SubmitChallenge(context.Background(), token, code, chromeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAllowed, decision.Status)
}

func TestCheckOperationWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hour    int
		op      domain.Operation
		ua      string
		allowed bool
		window  string
	}{
		{"desktop login open", 10, domain.OpLogin, edgeUA, true, "10:00-11:00"},
		{"desktop login closed", 12, domain.OpLogin, edgeUA, false, "10:00-11:00"},
		{"mobile login open late morning", 12, domain.OpLogin, mobileUA, true, "10:00-13:00"},
		{"subscription open", 10, domain.OpSubscription, mobileUA, true, "10:00-11:00"},
		{"subscription closed on mobile too", 12, domain.OpSubscription, mobileUA, false, "10:00-11:00"},
		{"video upload open", 15, domain.OpVideoUpload, edgeUA, true, "14:00-19:00"},
		{"video upload closed", 19, domain.OpVideoUpload, edgeUA, false, "14:00-19:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newGateFixture(t, tc.hour)
			allowed, window := f.gate.CheckOperationWindow(tc.op, tc.ua)
			require.Equal(t, tc.allowed, allowed)
			require.Equal(t, tc.window, window)
		})
	}
}

// The whole flow as one scenario: a free-tier user with one friend, on
// Chrome, at 10:00 local - challenged, then allowed, then limited to one
// post for the day.
func TestGateEndToEndScenario(t *testing.T) {
	t.Parallel()

	f := newGateFixture(t, 10)
	user := createUser(t, f.sessions.Store, domain.User{Email: "ada@example.com", FriendCount: 1})
	token := f.login(t, user)

	decision, err := f.gate.Authenticate(context.Background(), token, chromeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusChallengeRequired, decision.Status)

	code := f.email.last(t).Code
	decision, err = f.gate.SubmitChallenge(context.Background(), token, code, chromeUA)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAllowed, decision.Status)

	limit, err := f.gate.DailyLimit(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, policy.PostLimit(1), limit)
}
