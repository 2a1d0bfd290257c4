package service

import (
	"context"
	"testing"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/pkg/clientinfo"
	"github.com/codequesthq/gate/pkg/idx"
	"github.com/codequesthq/gate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var edgeClient = clientinfo.Client{Family: clientinfo.FamilyEdge, Device: clientinfo.DeviceDesktop}

func TestSessionRoundTripAppendsLoginRecord(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &SessionService{Store: st, Tokens: newTestTokens(t), Issuer: "gate-test"}

	user := createUser(t, st, domain.User{Email: "ada@example.com", Name: "Ada"})

	token, err := svc.IssueSession(context.Background(), user, edgeClient, "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := svc.VerifySession(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
	require.Equal(t, "ada@example.com", resolved.Email)

	records, err := st.LoginHistory().ListLoginRecords(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, clientinfo.FamilyEdge, records[0].AgentFamily)
	require.Equal(t, string(clientinfo.DeviceDesktop), records[0].DeviceClass)
	require.Equal(t, "203.0.113.7", records[0].SourceAddr)
}

func TestLoginHistoryOnlyGrows(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &SessionService{Store: st, Tokens: newTestTokens(t), Issuer: "gate-test"}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	for i := 0; i < 3; i++ {
		_, err := svc.IssueSession(context.Background(), user, edgeClient, "203.0.113.7")
		require.NoError(t, err)
	}

	records, err := st.LoginHistory().ListLoginRecords(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestVerifySessionRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	clock := newMovableClock(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	svc := &SessionService{Store: st, Tokens: newTestTokens(t), Issuer: "gate-test", Now: clock.Now}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	token, err := svc.IssueSession(context.Background(), user, edgeClient, "")
	require.NoError(t, err)

	// Still fine just inside 24 hours.
	clock.Advance(jwtx.DefaultSessionTTL - time.Minute)
	_, err = svc.VerifySession(context.Background(), token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.VerifySession(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifySessionRejectsGarbage(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &SessionService{Store: st, Tokens: newTestTokens(t), Issuer: "gate-test"}

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.VerifySession(context.Background(), token)
		require.ErrorIs(t, err, ErrInvalidCredential, "token %q", token)
	}
}

func TestVerifySessionUnknownUser(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	tokens := newTestTokens(t)
	svc := &SessionService{Store: st, Tokens: tokens, Issuer: "gate-test"}

	// A validly signed token whose subject was never persisted.
	claims := jwtx.NewSessionClaims(idx.New().String(), "", "gate-test", jwtx.DefaultSessionTTL, time.Now())
	token, err := tokens.Sign(claims)
	require.NoError(t, err)

	_, err = svc.VerifySession(context.Background(), token)
	require.ErrorIs(t, err, ErrUserNotFound)
}
