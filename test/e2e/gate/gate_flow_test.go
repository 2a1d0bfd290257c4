package gate_test

import (
	"context"
	"testing"

	"github.com/codequesthq/gate/pkg/gatesdk"
	"github.com/stretchr/testify/require"
)

// TestChromeChallengeFlow walks the full step-up path: a Chrome client gets
// challenged, submits the emailed passcode, and is allowed through.
func TestChromeChallengeFlow(t *testing.T) {
	srv := setupGateServer(t, 10)
	client := gatesdk.NewSDKClient(srv.URL)

	session, reg, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)
	require.NotEmpty(t, reg.AccessToken)

	decision, err := session.Authenticate(context.Background(), chromeUA)
	require.NoError(t, err)
	require.Equal(t, "challenge_required", decision.Status)

	code := srv.Email.last(t)
	decision, err = session.SubmitChallenge(context.Background(), code, chromeUA)
	require.NoError(t, err)
	require.Equal(t, "allowed", decision.Status)

	// The code is single use.
	decision, err = session.SubmitChallenge(context.Background(), code, chromeUA)
	require.NoError(t, err)
	require.Equal(t, "denied", decision.Status)
	require.Equal(t, "invalid_or_expired_code", decision.Reason)
}

// TestTrustedBrowserSkipsChallenge verifies Edge goes straight through
// inside the access window.
func TestTrustedBrowserSkipsChallenge(t *testing.T) {
	srv := setupGateServer(t, 10)
	client := gatesdk.NewSDKClient(srv.URL)

	session, _, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	decision, err := session.Authenticate(context.Background(), edgeUA)
	require.NoError(t, err)
	require.Equal(t, "allowed", decision.Status)
}

// TestAccessWindowDenial verifies a trusted browser is still refused outside
// the access window and told when to come back.
func TestAccessWindowDenial(t *testing.T) {
	srv := setupGateServer(t, 9)
	client := gatesdk.NewSDKClient(srv.URL)

	session, _, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	decision, err := session.Authenticate(context.Background(), edgeUA)
	require.NoError(t, err)
	require.Equal(t, "denied", decision.Status)
	require.Equal(t, "time_restricted", decision.Reason)
	require.Equal(t, "10:00-11:00", decision.Window)
}

func TestWindowLookup(t *testing.T) {
	srv := setupGateServer(t, 10)
	client := gatesdk.NewSDKClient(srv.URL)

	session, _, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	window, err := session.CheckWindow(context.Background(), "video_upload", edgeUA)
	require.NoError(t, err)
	require.False(t, window.Allowed)
	require.Equal(t, "14:00-19:00", window.Window)

	window, err = session.CheckWindow(context.Background(), "login", edgeUA)
	require.NoError(t, err)
	require.True(t, window.Allowed)
}

func TestDailyLimitAndProfile(t *testing.T) {
	srv := setupGateServer(t, 10)
	client := gatesdk.NewSDKClient(srv.URL)

	session, reg, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	profile, err := session.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, reg.UserID, profile.UserID)
	require.Equal(t, "ada@example.com", profile.Email)
	require.Equal(t, "free", profile.Plan)
	require.Equal(t, float64(1), profile.DailyPostLimit)

	// Fresh account, no subscription, no friends: one post a day.
	limit, err := session.DailyLimit(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(1), limit.Limit)

	logins, err := session.Logins(context.Background())
	require.NoError(t, err)
	require.Len(t, logins.Logins, 1)
}

func TestGoldSubscriptionUnlocksUnlimitedPosts(t *testing.T) {
	srv := setupGateServer(t, 10)
	client := gatesdk.NewSDKClient(srv.URL)

	session, _, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	sub, err := session.ActivateSubscription(context.Background(), "gold", 1)
	require.NoError(t, err)
	require.Equal(t, "gold", sub.Plan)

	limit, err := session.DailyLimit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "unlimited", limit.Limit)
}

func TestSubscriptionWindowClosed(t *testing.T) {
	srv := setupGateServer(t, 14)
	client := gatesdk.NewSDKClient(srv.URL)

	session, _, err := client.Register(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	_, err = session.ActivateSubscription(context.Background(), "silver", 1)
	var gerr *gatesdk.GateError
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, gatesdk.ErrorCodeWindowClosed, gerr.Code)
}
