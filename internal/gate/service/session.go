package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/pkg/clientinfo"
	"github.com/codequesthq/gate/pkg/idx"
	"github.com/codequesthq/gate/pkg/jwtx"
)

// SessionService mints and verifies the stateless session credential. A
// token binds a user id and a fixed 24-hour expiry; verification is by
// signature and expiry only, there is no revocation list.
type SessionService struct {
	Store  store.Store
	Tokens *jwtx.HS256
	Issuer string

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// IssueSession signs a fresh session token for the user and appends a login
// record. Login history is append-only; every successful authentication
// leaves an entry.
func (s *SessionService) IssueSession(ctx context.Context, user domain.User, client clientinfo.Client, sourceAddr string) (string, error) {
	now := s.now()

	claims := jwtx.NewSessionClaims(user.ID, user.Email, s.Issuer, jwtx.DefaultSessionTTL, now)
	token, err := s.Tokens.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	rec := domain.LoginRecord{
		ID:          idx.New().String(),
		UserID:      user.ID,
		At:          now,
		AgentFamily: client.Family,
		DeviceClass: string(client.Device),
		SourceAddr:  sourceAddr,
	}
	if err := s.Store.LoginHistory().AppendLoginRecord(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: append login record: %w", ErrDependencyUnavailable, err)
	}

	return token, nil
}

// VerifySession validates the credential and resolves it to a live identity.
// Signature, form and 24h expiry problems are all ErrInvalidCredential; a
// verified token whose subject no longer exists is ErrUserNotFound.
func (s *SessionService) VerifySession(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.Tokens.VerifyAt(token, s.now())
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("%w: load user: %w", ErrDependencyUnavailable, err)
	}

	return user, nil
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
