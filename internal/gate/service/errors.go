package service

import "errors"

var (
	// ErrInvalidCredential covers malformed, unverifiable or expired
	// session tokens. Never conflated with dependency failures.
	ErrInvalidCredential = errors.New("invalid session credential")

	// ErrUserNotFound means the credential verified but the referenced
	// identity no longer exists. Treated as an authentication failure;
	// users are never silently created here.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOrExpiredCode covers a wrong passcode, an expired one, and
	// the absence of any outstanding challenge. Callers can't tell which,
	// on purpose.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired passcode")

	// ErrNoDestination means the identity has neither an email nor a phone
	// number, so a passcode cannot be delivered.
	ErrNoDestination = errors.New("no passcode delivery destination on record")

	// ErrDeliveryFailed reports that the passcode was persisted but the
	// outbound send failed. The code remains valid; the caller may resend.
	ErrDeliveryFailed = errors.New("passcode delivery failed")

	// ErrSubscriptionWindowClosed rejects subscription processing outside
	// its allowed window.
	ErrSubscriptionWindowClosed = errors.New("subscription processing window closed")

	// ErrInvalidPlan rejects unknown or non-purchasable subscription plans.
	ErrInvalidPlan = errors.New("invalid subscription plan")

	// ErrDependencyUnavailable wraps identity-store or notification-channel
	// failures. Retryable by the caller, distinct from credential errors.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
