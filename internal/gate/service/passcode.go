package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/store"
)

const (
	// PasscodeTTL is how long an issued passcode stays valid.
	PasscodeTTL = 10 * time.Minute

	passcodeMin  = 100000
	passcodeSpan = 900000 // codes are uniform over [100000, 999999]
)

// Challenge describes an issued passcode challenge. The code itself never
// leaves the service except through the delivery channel.
type Challenge struct {
	UserID      string
	Destination string
	ViaEmail    bool
	ExpiresAt   time.Time
}

// PasscodeService owns the passcode lifecycle: generate, persist with
// expiry, deliver, verify-once, invalidate. A user has at most one live
// passcode; issuing overwrites whatever was there.
type PasscodeService struct {
	Store store.Store
	Email Notifier
	SMS   Notifier

	// TTL overrides PasscodeTTL when set (tests).
	TTL time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Notifier matches notify.Notifier; declared here so the service depends on
// behaviour, not the notify package.
type Notifier interface {
	SendCode(ctx context.Context, destination, code string) error
}

// Issue generates and delivers a passcode to the user's preferred
// destination (email when present, otherwise SMS). It returns once the code
// is persisted; a delivery failure is reported via ErrDeliveryFailed but
// does not invalidate the challenge.
func (s *PasscodeService) Issue(ctx context.Context, user domain.User) (Challenge, error) {
	dest, viaEmail, ok := user.PasscodeDestination()
	if !ok {
		return Challenge{}, ErrNoDestination
	}
	return s.issue(ctx, user.ID, dest, viaEmail)
}

// IssueSMS generates and delivers a passcode to the user's phone number,
// regardless of whether an email is on record. Used by the phone login flow.
func (s *PasscodeService) IssueSMS(ctx context.Context, user domain.User) (Challenge, error) {
	if user.Phone == "" {
		return Challenge{}, ErrNoDestination
	}
	return s.issue(ctx, user.ID, user.Phone, false)
}

func (s *PasscodeService) issue(ctx context.Context, userID, dest string, viaEmail bool) (Challenge, error) {
	code, err := generatePasscode()
	if err != nil {
		return Challenge{}, fmt.Errorf("generate passcode: %w", err)
	}

	expiresAt := s.now().Add(s.ttl())
	if err := s.Store.Users().SetPasscode(ctx, userID, fingerprint(code), expiresAt); err != nil {
		return Challenge{}, fmt.Errorf("%w: persist passcode: %w", ErrDependencyUnavailable, err)
	}

	challenge := Challenge{
		UserID:      userID,
		Destination: dest,
		ViaEmail:    viaEmail,
		ExpiresAt:   expiresAt,
	}

	// The persisted code is the source of truth. Delivery happens after the
	// point of no return and its failure is surfaced, not rolled back.
	notifier := s.SMS
	if viaEmail {
		notifier = s.Email
	}
	if notifier == nil {
		return challenge, fmt.Errorf("%w: no notifier configured for channel", ErrDeliveryFailed)
	}
	if err := notifier.SendCode(ctx, dest, code); err != nil {
		return challenge, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	return challenge, nil
}

// Verify consumes the user's outstanding passcode. Success clears the stored
// code atomically, so a given code verifies at most once even under
// concurrent attempts. Anything else is ErrInvalidOrExpiredCode.
func (s *PasscodeService) Verify(ctx context.Context, userID, code string) error {
	if len(code) != 6 {
		return ErrInvalidOrExpiredCode
	}

	ok, err := s.Store.Users().ConsumePasscode(ctx, userID, fingerprint(code), s.now())
	if err != nil {
		return fmt.Errorf("%w: consume passcode: %w", ErrDependencyUnavailable, err)
	}
	if !ok {
		return ErrInvalidOrExpiredCode
	}

	return nil
}

func (s *PasscodeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PasscodeService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return PasscodeTTL
}

// generatePasscode draws a uniform 6-digit code. The range starts at 100000,
// but codes are compared as strings end to end, never as numbers.
func generatePasscode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(passcodeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+passcodeMin), nil
}

// fingerprint returns the deterministic SHA-256 form a passcode is stored
// under, so the plaintext code never sits in the database.
func fingerprint(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
